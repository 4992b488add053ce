package naming

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stop words to filter out when extracting distinguishing keywords
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and
// removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// TopKeyword extracts the word that best distinguishes terms from
// contextTerms: frequent inside the group, rare in the contrasting corpus.
// ok is false when no word scores above minScore, or the group tokenizes to
// nothing.
func TopKeyword(terms, contextTerms []string, minScore float64) (string, bool) {
	groupFreq := wordFrequencies(terms)
	if len(groupFreq) == 0 {
		return "", false
	}
	contextFreq := wordFrequencies(contextTerms)

	type scored struct {
		word  string
		score float64
	}
	candidates := make([]scored, 0, len(groupFreq))
	for word, count := range groupFreq {
		inGroup := float64(count) / float64(len(terms))
		inContext := 0.0
		if len(contextTerms) > 0 {
			inContext = float64(contextFreq[word]) / float64(len(contextTerms))
		}
		candidates = append(candidates, scored{word, inGroup - inContext})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})

	best := candidates[0]
	if best.score < minScore {
		return "", false
	}
	return best.word, true
}

// wordFrequencies counts, per word, the number of terms containing it. A word
// repeated inside one term counts once.
func wordFrequencies(terms []string) map[string]int {
	freq := make(map[string]int)
	for _, term := range terms {
		seen := make(map[string]bool)
		for _, word := range tokenizeAndFilter(term) {
			if !seen[word] {
				freq[word]++
				seen[word] = true
			}
		}
	}
	return freq
}

var titleCaser = cases.Title(language.English)

// KeywordLabel composes a catch-all label for a leftover bucket: "Other
// (Keyword)" when a distinguishing keyword exists, plain "Other" otherwise.
func KeywordLabel(terms, contextTerms []string, minScore float64) string {
	keyword, ok := TopKeyword(terms, contextTerms, minScore)
	if !ok {
		return "Other"
	}
	return "Other (" + titleCaser.String(keyword) + ")"
}
