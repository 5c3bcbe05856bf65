package redundancy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// WordSet is the set of lowercase whitespace-separated tokens of a text.
// Order and repetition are discarded.
type WordSet map[string]struct{}

// Normalize lowercases content and collapses its tokens into a WordSet.
func Normalize(content string) WordSet {
	return setOf(tokens(content))
}

func tokens(content string) []string {
	return strings.Fields(strings.ToLower(content))
}

func setOf(words []string) WordSet {
	set := make(WordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index |a∩b| / |a∪b|. Two empty sets are
// considered identical.
func Similarity(a, b WordSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// CrossReference renders the link inserted instead of repeating content
// that already lives in file: [[see:<stem> YYYY-MM-DD HH:MM]].
func CrossReference(file string, at time.Time) string {
	base := path.Base(filepath.ToSlash(file))
	stem := strings.TrimSuffix(base, path.Ext(base))
	return fmt.Sprintf("[[see:%s %s]]", stem, at.Format("2006-01-02 15:04"))
}

// hashContent fingerprints content after whitespace and case folding, so
// reformatting a file does not change its hash.
func hashContent(content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
