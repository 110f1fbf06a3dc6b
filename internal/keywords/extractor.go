// Package keywords surfaces the most distinctive terms in a review corpus
// using TF-IDF over word n-grams.
package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Term is one ranked vocabulary entry.
type Term struct {
	Term    string
	Score   float64
	DocFreq int
}

// Config tunes the extraction policy.
type Config struct {
	// MaxFeatures caps the returned vocabulary size.
	MaxFeatures int
	// MinDocFreq drops terms appearing in fewer documents; rare terms are
	// noise, not signal.
	MinDocFreq int
	// MaxDocRatio drops terms appearing in more than this fraction of
	// documents.
	MaxDocRatio float64
	// NgramMin/NgramMax bound the n-gram sizes in the vocabulary.
	NgramMin int
	NgramMax int
}

// DefaultConfig returns the default extraction policy.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 100,
		MinDocFreq:  2,
		MaxDocRatio: 0.8,
		NgramMin:    1,
		NgramMax:    3,
	}
}

// Extract ranks the corpus vocabulary by mean TF-IDF weight. The result is
// a pure function of the corpus and config: identical inputs produce an
// identical ranking, with score ties broken by lexicographic term order.
func Extract(corpus []string, cfg Config) []Term {
	def := DefaultConfig()
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.MinDocFreq <= 0 {
		cfg.MinDocFreq = def.MinDocFreq
	}
	if cfg.MaxDocRatio <= 0 || cfg.MaxDocRatio > 1 {
		cfg.MaxDocRatio = def.MaxDocRatio
	}
	if cfg.NgramMin <= 0 {
		cfg.NgramMin = def.NgramMin
	}
	if cfg.NgramMax < cfg.NgramMin {
		cfg.NgramMax = cfg.NgramMin
	}

	if len(corpus) == 0 {
		return nil
	}

	// Per-document term counts over stopword-filtered n-grams.
	docTerms := make([]map[string]int, len(corpus))
	docFreq := make(map[string]int)
	for i, doc := range corpus {
		counts := make(map[string]int)
		for _, gram := range ngrams(tokenize(doc), cfg.NgramMin, cfg.NgramMax) {
			counts[gram]++
		}
		docTerms[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	// Document-frequency cutoffs.
	numDocs := len(corpus)
	maxDF := int(cfg.MaxDocRatio * float64(numDocs))
	if maxDF < 1 {
		maxDF = 1
	}
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		if df < cfg.MinDocFreq || df > maxDF {
			continue
		}
		// Smoothed IDF so ubiquitous terms rank below distinctive ones.
		idf[term] = math.Log(float64(1+numDocs)/float64(1+df)) + 1
	}

	// Mean of L2-normalized TF-IDF weight per term across documents.
	sums := make(map[string]float64, len(idf))
	for _, counts := range docTerms {
		var norm float64
		weights := make(map[string]float64, len(counts))
		for term, tf := range counts {
			w, ok := idf[term]
			if !ok {
				continue
			}
			weight := float64(tf) * w
			weights[term] = weight
			norm += weight * weight
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, weight := range weights {
			sums[term] += weight / norm
		}
	}

	terms := make([]Term, 0, len(sums))
	for term, sum := range sums {
		terms = append(terms, Term{
			Term:    term,
			Score:   sum / float64(numDocs),
			DocFreq: docFreq[term],
		})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Score != terms[j].Score {
			return terms[i].Score > terms[j].Score
		}
		return terms[i].Term < terms[j].Term
	})

	if len(terms) > cfg.MaxFeatures {
		terms = terms[:cfg.MaxFeatures]
	}

	return terms
}

// tokenize lowercases, strips non-alphanumeric runes, and removes stop
// words and single-character tokens.
func tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(mapped)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// ngrams emits space-joined n-grams for every n in [min, max] over the
// token stream.
func ngrams(tokens []string, minN, maxN int) []string {
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}
