package textproc

import (
	"math"
	"sort"
)

// CosineSimilarity fits a TF-IDF model on the two documents (smooth idf,
// raw term counts, L2 normalization) and returns the cosine of their vectors
// in [0,1]. maxFeatures <= 0 keeps the whole vocabulary. Returns 0 when
// either document has no usable terms.
//
// Terms are visited in a fixed order so identical inputs give bit-identical
// results.
func CosineSimilarity(a, b string, maxFeatures int) float64 {
	docs := [2]map[string]float64{counts(featureTokens(a)), counts(featureTokens(b))}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0
	}

	vocab := selectVocabulary(docs[:], maxFeatures)

	var vecs [2][]float64
	for i, doc := range docs {
		vec := make([]float64, len(vocab))
		var norm float64
		for j, term := range vocab {
			tf := doc[term]
			if tf == 0 {
				continue
			}
			df := 0
			for _, d := range docs {
				if d[term] > 0 {
					df++
				}
			}
			idf := math.Log(float64(1+len(docs))/float64(1+df)) + 1
			vec[j] = tf * idf
			norm += vec[j] * vec[j]
		}
		if norm == 0 {
			return 0
		}
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] /= norm
		}
		vecs[i] = vec
	}

	var dot float64
	for j := range vocab {
		dot += vecs[0][j] * vecs[1][j]
	}
	if dot > 1 {
		dot = 1
	}
	return dot
}

func counts(tokens []string) map[string]float64 {
	m := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}

// selectVocabulary keeps the maxFeatures most frequent terms across docs,
// breaking ties alphabetically, and returns them sorted alphabetically.
func selectVocabulary(docs []map[string]float64, maxFeatures int) []string {
	total := map[string]float64{}
	for _, d := range docs {
		for t, c := range d {
			total[t] += c
		}
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)
	return terms
}
