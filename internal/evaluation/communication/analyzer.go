// Package communication scores spoken communication quality from a
// transcript: clarity, vocabulary, fluency and readability.
package communication

import (
	"math"
	"strings"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/textproc"
)

const MinTranscriptChars = 20

// Sub-score weights.
const (
	WeightClarity     = 0.30
	WeightVocabulary  = 0.25
	WeightFluency     = 0.25
	WeightReadability = 0.20
)

var fillerPhrases = []string{
	"um", "uh", "like", "you know", "basically", "actually", "literally",
	"so", "well", "right", "okay", "i mean", "sort of", "kind of",
	"you see", "honestly", "frankly", "anyway", "whatever",
}

var professionalTerms = map[string]bool{
	"therefore": true, "furthermore": true, "however": true, "moreover": true, "consequently": true,
	"specifically": true, "particularly": true, "additionally": true, "subsequently": true,
	"effectively": true, "efficiently": true, "strategically": true, "significantly": true,
	"implement": true, "analyze": true, "develop": true, "optimize": true, "integrate": true,
	"collaborate": true, "coordinate": true, "facilitate": true, "demonstrate": true,
}

type Analyzer struct {
	logger logger.Logger
}

func NewAnalyzer(log logger.Logger) *Analyzer {
	return &Analyzer{logger: log.WithFields(map[string]interface{}{"component": "communication"})}
}

// Analyze scores transcript. durationSeconds <= 0 means the speaking rate is unknown.
func (a *Analyzer) Analyze(transcript string, durationSeconds float64) evaluation.PillarResult {
	if len(strings.TrimSpace(transcript)) < MinTranscriptChars {
		return evaluation.Failed(evaluation.PillarCommunication, "transcript is too short for analysis")
	}

	clarity := Clarity(transcript)
	vocab := Vocabulary(transcript)
	fluency := Fluency(transcript, durationSeconds)
	readability := Readability(transcript)

	score := clarity.Score*WeightClarity +
		vocab.Score*WeightVocabulary +
		fluency.Score*WeightFluency +
		readability.Score*WeightReadability

	a.logger.Debug("communication analyzed", map[string]interface{}{
		"clarity":     clarity.Score,
		"vocabulary":  vocab.Score,
		"fluency":     fluency.Score,
		"readability": readability.Score,
	})

	return evaluation.Succeeded(evaluation.PillarCommunication, score, map[string]interface{}{
		"clarity":        clarity,
		"vocabulary":     vocab,
		"fluency":        fluency,
		"readability":    readability,
		"word_count":     clarity.WordCount,
		"sentence_count": clarity.SentenceCount,
		"wpm":            fluency.WordsPerMinute,
		"filler_count":   vocab.FillerCount,
		"weights": map[string]float64{
			"clarity":     WeightClarity,
			"vocabulary":  WeightVocabulary,
			"fluency":     WeightFluency,
			"readability": WeightReadability,
		},
	})
}

type ClarityScore struct {
	Score               float64 `json:"score"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	SentenceCount       int     `json:"sentence_count"`
	CompleteSentences   int     `json:"complete_sentences"`
	WordCount           int     `json:"word_count"`
}

// Clarity averages a sentence-length band score with the share of sentences
// that end in terminal punctuation.
func Clarity(text string) ClarityScore {
	if len(strings.TrimSpace(text)) < 10 {
		return ClarityScore{}
	}
	sentences := textproc.Sentences(text)
	words := textproc.Words(text)
	if len(sentences) == 0 || len(words) == 0 {
		return ClarityScore{}
	}

	avg := float64(len(words)) / float64(len(sentences))
	length := sentenceLengthBand(avg)

	complete := 0
	for _, s := range sentences {
		if textproc.EndsWithTerminal(s) {
			complete++
		}
	}
	completeness := float64(complete) / float64(len(sentences)) * 100

	return ClarityScore{
		Score:               textproc.Round(length*0.5+completeness*0.5, 2),
		AvgWordsPerSentence: textproc.Round(avg, 1),
		SentenceCount:       len(sentences),
		CompleteSentences:   complete,
		WordCount:           len(words),
	}
}

type VocabularyScore struct {
	Score             float64 `json:"score"`
	UniqueWords       int     `json:"unique_words"`
	TotalWords        int     `json:"total_words"`
	DiversityRatio    float64 `json:"diversity_ratio"`
	FillerCount       int     `json:"filler_count"`
	ProfessionalTerms int     `json:"professional_terms"`
}

// Vocabulary rewards lexical diversity and professional terms and penalizes fillers.
func Vocabulary(text string) VocabularyScore {
	if len(strings.TrimSpace(text)) < 10 {
		return VocabularyScore{}
	}
	words := textproc.Words(text)
	if len(words) == 0 {
		return VocabularyScore{}
	}
	content := textproc.ContentWords(words)

	unique := make(map[string]struct{}, len(content))
	professional := 0
	for _, w := range content {
		unique[w] = struct{}{}
		if professionalTerms[w] {
			professional++
		}
	}

	var ratio float64
	if len(content) > 0 {
		ratio = float64(len(unique)) / float64(len(content))
	}
	diversity := math.Min(100, ratio*150)

	fillers := 0
	for _, f := range fillerPhrases {
		fillers += textproc.CountOccurrences(text, f)
	}
	penalty := math.Min(30, float64(fillers)/float64(len(words))*500)
	bonus := math.Min(20, float64(professional)*4)

	return VocabularyScore{
		Score:             textproc.Round(textproc.Clamp(diversity-penalty+bonus, 0, 100), 2),
		UniqueWords:       len(unique),
		TotalWords:        len(words),
		DiversityRatio:    textproc.Round(ratio, 3),
		FillerCount:       fillers,
		ProfessionalTerms: professional,
	}
}

type FluencyScore struct {
	Score          float64 `json:"score"`
	WordsPerMinute float64 `json:"words_per_minute"`
	WordCount      int     `json:"word_count"`
	Repetitions    int     `json:"repetitions"`
	Stutters       int     `json:"stutters"`
}

// Fluency scores speaking rate and subtracts penalties for repeated bigrams
// and immediately repeated words.
func Fluency(text string, durationSeconds float64) FluencyScore {
	if len(strings.TrimSpace(text)) < 10 {
		return FluencyScore{}
	}
	words := textproc.Words(text)

	var wpm float64
	rate := 70.0
	if durationSeconds > 0 {
		wpm = float64(len(words)) / durationSeconds * 60
		rate = speakingRateBand(wpm)
	}

	repetitions, stutters := 0, 0
	var repetitionPenalty float64
	if len(words) > 1 {
		pairs := make(map[string]struct{}, len(words)-1)
		for i := 0; i < len(words)-1; i++ {
			pairs[words[i]+" "+words[i+1]] = struct{}{}
			if words[i] == words[i+1] {
				stutters++
			}
		}
		total := len(words) - 1
		repetitions = total - len(pairs)
		repetitionPenalty = math.Min(20, float64(repetitions)/float64(total)*200)
	}
	stutterPenalty := math.Min(15, float64(stutters)*3)

	return FluencyScore{
		Score:          textproc.Round(textproc.Clamp(rate-repetitionPenalty-stutterPenalty, 0, 100), 2),
		WordsPerMinute: textproc.Round(wpm, 1),
		WordCount:      len(words),
		Repetitions:    repetitions,
		Stutters:       stutters,
	}
}

type ReadabilityScore struct {
	Score      float64 `json:"score"`
	GradeLevel float64 `json:"grade_level"`
}

// Readability maps the Flesch-Kincaid grade onto a band that peaks at grades 8-12.
func Readability(text string) ReadabilityScore {
	if len(strings.TrimSpace(text)) < 50 {
		return ReadabilityScore{}
	}
	grade := textproc.FleschKincaidGrade(text)
	return ReadabilityScore{
		Score:      textproc.Round(gradeBand(grade), 2),
		GradeLevel: textproc.Round(grade, 1),
	}
}

func sentenceLengthBand(avg float64) float64 {
	switch {
	case avg >= 10 && avg <= 25:
		return 100
	case avg >= 5 && avg < 10:
		return 60 + (avg-5)*8
	case avg > 25 && avg <= 35:
		return 100 - (avg-25)*4
	}
	return 40
}

func speakingRateBand(wpm float64) float64 {
	switch {
	case wpm >= 100 && wpm <= 170:
		return 100
	case wpm >= 70 && wpm < 100:
		return 60 + (wpm-70)*1.33
	case wpm > 170 && wpm <= 200:
		return 100 - (wpm-170)*2
	}
	return 50
}

func gradeBand(grade float64) float64 {
	switch {
	case grade >= 8 && grade <= 12:
		return 100
	case grade >= 6 && grade < 8:
		return 80 + (grade-6)*10
	case grade > 12 && grade <= 14:
		return 100 - (grade-12)*10
	}
	return 60
}
