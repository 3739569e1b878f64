// Package textproc holds the small text utilities the analyzers share:
// word and sentence splitting, stopword lists, TF-IDF cosine similarity and
// syllable estimation.
package textproc

import (
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`[a-z0-9]+`)
	featurePattern  = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// Words returns the lowercased alphanumeric tokens of text.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Sentences splits text on terminal punctuation. A trailing fragment without
// punctuation is kept as its own sentence.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" || strings.Trim(s, ".!?") == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// EndsWithTerminal reports whether a sentence ends in '.', '!' or '?'.
func EndsWithTerminal(sentence string) bool {
	s := strings.TrimSpace(sentence)
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// ContentWords drops NLTK stopwords and words of two characters or fewer.
func ContentWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 2 && !IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// featureTokens tokenizes for TF-IDF: two or more word characters, lowercased,
// English stopwords removed.
func featureTokens(text string) []string {
	raw := featurePattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if !isFeatureStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// CountOccurrences counts non-overlapping occurrences of phrase in lowercased text.
func CountOccurrences(text, phrase string) int {
	if phrase == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), phrase)
}
