package normalize

import (
	"reflect"
	"testing"
)

func TestStandardizePrefixRoundTrip(t *testing.T) {
	// I-1: standardize(standardize(n, false), true) == clean_name(n)
	cases := []string{"disabled_Ayaka", "DISABLE-Ayaka", "dis Ayaka", "Ayaka", "  disabled   Ayaka  "}
	for _, name := range cases {
		disabled := StandardizePrefix(name, false)
		reenabled := StandardizePrefix(disabled, true)
		if reenabled != CleanName(name) {
			t.Errorf("round trip failed for %q: got %q want %q", name, reenabled, CleanName(name))
		}
	}
}

func TestCleanName(t *testing.T) {
	if got := CleanName("disabled_Ayaka"); got != "Ayaka" {
		t.Fatalf("got %q", got)
	}
	if got := StandardizePrefix("Ayaka", false); got != "DISABLED Ayaka" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeForMatchingCamelCase(t *testing.T) {
	cfg := DefaultConfig()
	got := NormalizeForMatching("KamisatoAyaka", cfg)
	if got != "kamisato ayaka" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeForMatchingDropsStopwordsAndNumbers(t *testing.T) {
	cfg := DefaultConfig()
	got := Tokenize("Ayaka_mod_v2_fix_123", cfg)
	want := []string{"ayaka"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestNormalizeForMatchingWhitelistShortTokens(t *testing.T) {
	cfg := DefaultConfig()
	got := Tokenize("Hu Tao", cfg)
	want := []string{"hu", "tao"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDisplayNameCollapsesWhitespace(t *testing.T) {
	got := DisplayName("disabled_  Ayaka   Springbloom")
	if got != "Ayaka Springbloom" {
		t.Fatalf("got %q", got)
	}
}

func TestIsDisabledFolder(t *testing.T) {
	for _, name := range []string{"disabled_Ayaka", "DISABLED Ayaka", "dis-Ayaka", "DisableAyaka"} {
		if !IsDisabledFolder(name) {
			t.Errorf("expected %q to be detected as disabled", name)
		}
	}
	if IsDisabledFolder("Ayaka") {
		t.Fatal("did not expect Ayaka to be disabled")
	}
}
