package similarity

import (
	"context"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary size.
const DefaultMaxFeatures = 10000

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// term is one entry of a sparse vector.
type term struct {
	index  int
	weight float64
}

// sparseVector holds non-zero weights sorted by vocabulary index.
type sparseVector []term

// Vectorizer is a TF-IDF vectorizer over unigrams and bigrams with English
// stop words removed. Fit it once, then Transform any number of texts.
type Vectorizer struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
}

// NewVectorizer creates an unfitted vectorizer. A maxFeatures of zero or
// less uses DefaultMaxFeatures.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{maxFeatures: maxFeatures}
}

// analyze lower-cases, tokenizes, drops stop words and emits unigrams
// followed by bigrams of the remaining tokens.
func analyze(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := englishStopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	grams := make([]string, 0, 2*len(tokens))
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

// Fit builds the vocabulary and IDF weights from corpus. The vocabulary keeps
// the maxFeatures terms with the highest corpus frequency, ties broken
// alphabetically, and is indexed alphabetically.
func (v *Vectorizer) Fit(corpus []string) {
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, g := range analyze(text) {
			tf[g]++
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				df[g]++
			}
		}
	}

	terms := make([]string, 0, len(tf))
	for t := range tf {
		terms = append(terms, t)
	}
	if len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, t := range terms {
		v.vocabulary[t] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
}

// VocabularySize returns the number of features after Fit.
func (v *Vectorizer) VocabularySize() int {
	return len(v.idf)
}

// Transform returns the L2-normalized TF-IDF vector of text using raw term
// counts. Texts with no known terms yield an empty vector.
func (v *Vectorizer) Transform(text string) sparseVector {
	counts := make(map[int]int)
	for _, g := range analyze(text) {
		if idx, ok := v.vocabulary[g]; ok {
			counts[idx]++
		}
	}

	vec := make(sparseVector, 0, len(counts))
	for idx, c := range counts {
		vec = append(vec, term{index: idx, weight: float64(c) * v.idf[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].index < vec[j].index })

	var norm float64
	for _, t := range vec {
		norm += t.weight * t.weight
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i].weight /= norm
		}
	}
	return vec
}

// Lexical is the TF-IDF strategy.
type Lexical struct {
	maxFeatures int
}

// NewLexical creates a TF-IDF strategy with the given vocabulary cap.
func NewLexical(maxFeatures int) *Lexical {
	return &Lexical{maxFeatures: maxFeatures}
}

// Method returns MethodTFIDF.
func (l *Lexical) Method() Method {
	return MethodTFIDF
}

// Matrix fits a vectorizer on the union of both corpora (once when they are
// identical) and returns cosine similarities of queries against candidates.
func (l *Lexical) Matrix(ctx context.Context, queries, candidates []string) (Matrix, error) {
	if len(queries) == 0 || len(candidates) == 0 {
		return nil, ErrEmptyCorpus
	}

	self := slices.Equal(queries, candidates)
	v := NewVectorizer(l.maxFeatures)
	if self {
		v.Fit(queries)
	} else {
		v.Fit(append(slices.Clone(queries), candidates...))
	}

	// Inverted index over candidates: vocabulary index -> postings.
	type posting struct {
		doc    int
		weight float64
	}
	index := make([][]posting, v.VocabularySize())
	for j, text := range candidates {
		for _, t := range v.Transform(text) {
			index[t.index] = append(index[t.index], posting{doc: j, weight: t.weight})
		}
	}

	m := NewMatrix(len(queries), len(candidates))
	for i, text := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := m[i]
		for _, t := range v.Transform(text) {
			for _, p := range index[t.index] {
				row[p.doc] += t.weight * p.weight
			}
		}
	}
	return m, nil
}
