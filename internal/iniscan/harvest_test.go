package iniscan

import (
	"reflect"
	"testing"

	"github.com/modgrove/modcore/internal/normalize"
)

func TestHashesBasic(t *testing.T) {
	content := "[TextureOverrideAlbedo]\nhash = d94c8962\n"
	got := Hashes(content)
	want := []string{"d94c8962"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestHashesDenyListed(t *testing.T) {
	content := "[TextureOverrideUI]\nhash = aaaaaaaa\n[TextureOverrideBody]\nhash = bbbbbbbb\n"
	got := Hashes(content)
	want := []string{"bbbbbbbb"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestHashesDisarmOnOtherSection(t *testing.T) {
	content := "[TextureOverrideBody]\n[Constants]\nhash = cccccccc\n[TextureOverrideBody]\nhash = dddddddd\n"
	got := Hashes(content)
	want := []string{"dddddddd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestHashesTruncatesSixteenHex(t *testing.T) {
	content := "[TextureOverrideBody]\nhash = 00000000d94c8962\n"
	got := Hashes(content)
	want := []string{"d94c8962"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestScanStructuralSectionAndPath(t *testing.T) {
	cfg := normalize.DefaultConfig()
	content := "[TextureOverrideKamisatoAyakaHead]\ntexture = KamisatoAyaka_Diffuse.dds\nrun = CommandListAyaka\n"
	result := ScanStructural(content, cfg)
	if len(result.SectionTokens) == 0 {
		t.Fatal("expected section tokens")
	}
	foundAyaka := false
	for _, tok := range result.ContentTokens {
		if tok == "ayaka" {
			foundAyaka = true
		}
	}
	if !foundAyaka {
		t.Fatalf("expected ayaka in content tokens, got %v", result.ContentTokens)
	}
	for _, tok := range result.ContentTokens {
		if tok == "commandlistayaka" {
			t.Fatal("blacklisted key 'run' should not contribute tokens")
		}
	}
}

func TestKeyBindings(t *testing.T) {
	content := "[KeyToggle]\nkey = vk_f1\nback = vk_f2\n[TextureOverrideBody]\nkey = ignored\n"
	got := KeyBindings(content)
	want := []string{"back=vk_f2", "key=vk_f1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
