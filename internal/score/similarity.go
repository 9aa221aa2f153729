package score

import (
	"math"
	"regexp"

	"github.com/fanshield/doxwatch/internal/textnorm"
)

// tokenPattern matches word tokens of at least two characters, applied
// after normalization (ASCII, lowercase).
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// SimilarityModel holds a TF-IDF vector space fitted once per run from the
// reference corpus. Scoring is a read-only operation against the fitted
// model and may run concurrently for distinct texts.
type SimilarityModel struct {
	vocab map[string]int // term -> column index
	idf   []float64
	docs  []map[int]float64 // l2-normalized corpus vectors, sparse
}

// FitCorpus builds the vector space from the reference corpus. Corpus
// texts go through the same normalization as candidates, stop words are
// excluded from the vocabulary, and the IDF is smoothed so unseen terms
// never divide by zero.
func FitCorpus(corpus []string, stopWords map[string]struct{}) *SimilarityModel {
	m := &SimilarityModel{
		vocab: make(map[string]int),
	}

	tokenized := make([][]string, 0, len(corpus))
	df := make(map[int]int)
	for _, text := range corpus {
		tokens := tokenize(text, stopWords)
		tokenized = append(tokenized, tokens)

		seen := make(map[int]struct{}, len(tokens))
		for _, tok := range tokens {
			idx, ok := m.vocab[tok]
			if !ok {
				idx = len(m.vocab)
				m.vocab[tok] = idx
			}
			if _, dup := seen[idx]; !dup {
				seen[idx] = struct{}{}
				df[idx]++
			}
		}
	}

	n := len(corpus)
	m.idf = make([]float64, len(m.vocab))
	for idx := range m.idf {
		m.idf[idx] = math.Log(float64(1+n)/float64(1+df[idx])) + 1
	}

	m.docs = make([]map[int]float64, 0, len(tokenized))
	for _, tokens := range tokenized {
		m.docs = append(m.docs, m.vectorize(tokens))
	}
	return m
}

// Score transforms the text into the fitted vector space and returns the
// maximum cosine similarity against any corpus vector. Text with no
// vocabulary overlap scores 0. The candidate is never added to the model.
func (m *SimilarityModel) Score(text string) float64 {
	vec := m.vectorize(tokenizeFitted(text, m.vocab))
	if len(vec) == 0 {
		return 0
	}

	best := 0.0
	for _, doc := range m.docs {
		if sim := dot(vec, doc); sim > best {
			best = sim
		}
	}
	return best
}

// vectorize builds an l2-normalized TF-IDF vector from tokens already
// restricted to the fitted vocabulary.
func (m *SimilarityModel) vectorize(tokens []string) map[int]float64 {
	vec := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := m.vocab[tok]; ok {
			vec[idx]++
		}
	}
	if len(vec) == 0 {
		return vec
	}

	var sumSq float64
	for idx, tf := range vec {
		w := tf * m.idf[idx]
		vec[idx] = w
		sumSq += w * w
	}
	norm := math.Sqrt(sumSq)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

func tokenize(text string, stopWords map[string]struct{}) []string {
	raw := tokenPattern.FindAllString(textnorm.Normalize(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// tokenizeFitted keeps only terms already in the vocabulary; stop words
// were excluded at fit time so they can never match here.
func tokenizeFitted(text string, vocab map[string]int) []string {
	raw := tokenPattern.FindAllString(textnorm.Normalize(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, ok := vocab[tok]; ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, w := range a {
		sum += w * b[idx]
	}
	return sum
}
