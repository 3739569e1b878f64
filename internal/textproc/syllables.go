package textproc

import "strings"

// Syllables estimates the syllable count of a single lowercase word by
// counting vowel groups, dropping a silent trailing 'e'. Every word has at
// least one syllable.
func Syllables(word string) int {
	word = strings.ToLower(word)
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// FleschKincaidGrade returns 0.39*words/sentences + 11.8*syllables/words - 15.59.
func FleschKincaidGrade(text string) float64 {
	words := Words(text)
	sentences := len(Sentences(text))
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syl := 0
	for _, w := range words {
		syl += Syllables(w)
	}
	wc := float64(len(words))
	return 0.39*wc/float64(sentences) + 11.8*float64(syl)/wc - 15.59
}
