package fusion

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// Vocabulary terms are matched as substrings of normalized label text, so
// "plastic bottle" hits both the plastic and bottle terms but still
// counts its score once per vocabulary.
var (
	plasticVocabulary = []string{
		"plastic", "bottle", "trash", "waste", "pollution", "debris",
		"garbage", "litter", "container", "bag", "packaging",
	}
	waterVocabulary = []string{
		"ocean", "water", "sea", "wave", "beach", "coast", "marine",
	}
)

// stripMarks drops combining marks after NFD decomposition, so "botella
// plástica" matches the same as its ASCII form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeText(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func containsAny(text string, vocab []string) bool {
	for _, term := range vocab {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// vocabMatch accumulates per-vocabulary scores across label entries.
type vocabMatch struct {
	plasticScore float64
	waterScore   float64
	plasticTexts []string
}

// matchVocabularies scores label entries against both vocabularies. Each
// entry contributes its score at most once per vocabulary; an entry like
// "water pollution" counts toward both.
func matchVocabularies(entries []model.Label) vocabMatch {
	var m vocabMatch
	for _, entry := range entries {
		text := normalizeText(entry.Text)
		if containsAny(text, plasticVocabulary) {
			m.plasticScore += entry.Score
			m.plasticTexts = append(m.plasticTexts, entry.Text)
		}
		if containsAny(text, waterVocabulary) {
			m.waterScore += entry.Score
		}
	}
	return m
}
