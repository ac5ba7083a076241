package masterdb

import (
	"math"
	"sort"
)

// Indexes holds the deterministic inverted indexes built once per
// MasterDb load.
type Indexes struct {
	// TokenIndex maps a normalized token to the sorted, deduplicated list
	// of entry ids whose keyword set contains it.
	TokenIndex map[string][]int
	// HashIndex maps an 8-hex asset hash to the sorted, deduplicated list
	// of entry ids whose hash_db contains it.
	HashIndex map[string][]int
	// TokenDF is the posting length (document frequency) per token.
	TokenDF map[string]int
	// HashDF is the posting length (document frequency) per hash.
	HashDF map[string]int
}

// BuildIndexes constructs the token and hash inverted indexes for db.
// Two calls over identical entries produce byte-identical results: postings
// are built from sorted entry iteration and then sorted again, so iteration
// order of Go's maps never leaks into the result.
func BuildIndexes(db *MasterDb) Indexes {
	tokenPostings := make(map[string][]int)
	hashPostings := make(map[string][]int)

	for entryID := 0; entryID < len(db.Entries); entryID++ {
		tokens := make([]string, 0, len(db.Keywords[entryID]))
		for tok := range db.Keywords[entryID] {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		for _, tok := range tokens {
			tokenPostings[tok] = append(tokenPostings[tok], entryID)
		}

		hashes := make([]string, 0)
		seen := make(map[string]bool)
		for _, hs := range db.Entries[entryID].HashDB {
			for _, h := range hs {
				if !seen[h] {
					seen[h] = true
					hashes = append(hashes, h)
				}
			}
		}
		sort.Strings(hashes)
		for _, h := range hashes {
			hashPostings[h] = append(hashPostings[h], entryID)
		}
	}

	tokenDF := make(map[string]int, len(tokenPostings))
	for tok, ids := range tokenPostings {
		sort.Ints(ids)
		tokenPostings[tok] = ids
		tokenDF[tok] = len(ids)
	}
	hashDF := make(map[string]int, len(hashPostings))
	for h, ids := range hashPostings {
		sort.Ints(ids)
		hashPostings[h] = ids
		hashDF[h] = len(ids)
	}

	return Indexes{
		TokenIndex: tokenPostings,
		HashIndex:  hashPostings,
		TokenDF:    tokenDF,
		HashDF:     hashDF,
	}
}

// TokenIDF computes the IDF-lite weight for a token:
// ln((N+1) / (df+1)) + 1, where N is the number of entries in db.
func (db *MasterDb) TokenIDF(token string) float32 {
	n := float64(len(db.Entries))
	df := float64(db.Indexes.TokenDF[token])
	return float32(math.Log((n+1)/(df+1)) + 1)
}

// TokenDF returns the document frequency of token, or 0 if unseen.
func (db *MasterDb) TokenDF(token string) int {
	return db.Indexes.TokenDF[token]
}

// HashDF returns the document frequency of hash, or 0 if unseen.
func (db *MasterDb) HashDF(hash string) int {
	return db.Indexes.HashDF[hash]
}
