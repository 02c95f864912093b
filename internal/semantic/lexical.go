package semantic

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"

	"github.com/devpulse/backend/internal/model"
)

// Lexical complexity blend and scaling. Keyword density carries the most
// signal; sentence length and code-token density refine it.
const (
	keywordWeight  = 0.50
	sentenceWeight = 0.25
	codeWeight     = 0.25

	keywordDensityScale = 250.0
	sentenceLenCap      = 30.0
	codeDensityScale    = 500.0
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"to": true, "of": true, "in": true, "on": true, "for": true, "with": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"this": true, "that": true, "it": true, "as": true, "at": true, "by": true,
	"from": true, "we": true, "i": true, "you": true, "not": true, "no": true,
	"so": true, "if": true, "then": true, "when": true, "which": true, "will": true,
}

// LexicalAnalyzer is the always-available strategy. It builds a TF-IDF
// representation over the batch being analyzed in the current run; it needs
// no external service and never fails. Instances are run-scoped: the fitted
// vocabulary never outlives the run that built it.
type LexicalAnalyzer struct {
	idf    map[string]float64
	fitted bool
}

func NewLexicalAnalyzer() *LexicalAnalyzer {
	return &LexicalAnalyzer{}
}

func (a *LexicalAnalyzer) Name() string { return "lexical" }

func (a *LexicalAnalyzer) AnalyzeBatch(_ context.Context, records []model.ContentRecord) ([]model.SemanticResult, error) {
	tokenized := make([][]string, len(records))
	sentences := make([][]int, len(records))
	df := map[string]int{}

	for i, rec := range records {
		tokens, sentenceLens := tokenize(recordText(rec))
		tokenized[i] = tokens
		sentences[i] = sentenceLens

		seen := map[string]bool{}
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	a.idf = make(map[string]float64, len(df))
	n := float64(len(records))
	for term, count := range df {
		a.idf[term] = math.Log(1 + n/float64(1+count))
	}
	a.fitted = true

	results := make([]model.SemanticResult, len(records))
	for i, rec := range records {
		results[i] = model.SemanticResult{
			RecordID:        rec.ID,
			ComplexityScore: lexicalComplexity(tokenized[i], sentences[i]),
			AILikelihood:    aiLikelihood(recordText(rec), sentences[i]),
			TopicTags:       topicTags(tokenized[i]),
		}
	}

	return results, nil
}

// Similarity is the cosine distance between the two records' TF-IDF vectors.
// Terms outside the fitted vocabulary fall back to unit inverse frequency.
func (a *LexicalAnalyzer) Similarity(_ context.Context, x, y model.ContentRecord) (float64, error) {
	tx, _ := tokenize(recordText(x))
	ty, _ := tokenize(recordText(y))

	vx := a.vector(tx)
	vy := a.vector(ty)

	return cosineMaps(vx, vy), nil
}

func (a *LexicalAnalyzer) vector(tokens []string) map[string]float64 {
	tf := map[string]float64{}
	for _, t := range tokens {
		tf[t]++
	}

	vec := make(map[string]float64, len(tf))
	for term, count := range tf {
		idf := 1.0
		if a.fitted {
			if v, ok := a.idf[term]; ok {
				idf = v
			}
		}
		vec[term] = count * idf
	}
	return vec
}

func lexicalComplexity(tokens []string, sentenceLens []int) float64 {
	if len(tokens) == 0 {
		return 0
	}

	var keywordMass float64
	var codeTokens int
	for _, t := range tokens {
		if w, ok := technicalKeywords[t]; ok {
			keywordMass += w
		}
		if looksLikeCode(t) {
			codeTokens++
		}
	}

	n := float64(len(tokens))
	kwScore := math.Min(100, keywordMass/n*keywordDensityScale)
	codeScore := math.Min(100, float64(codeTokens)/n*codeDensityScale)

	var sentScore float64
	if len(sentenceLens) > 0 {
		var sum int
		for _, l := range sentenceLens {
			sum += l
		}
		avg := float64(sum) / float64(len(sentenceLens))
		sentScore = math.Min(100, avg/sentenceLenCap*100)
	}

	score := keywordWeight*kwScore + sentenceWeight*sentScore + codeWeight*codeScore
	return math.Max(0, math.Min(100, score))
}

// topicTags returns every bucket hit at least twice, or the single best
// bucket when nothing reaches two hits. Tags are sorted for determinism.
func topicTags(tokens []string) []string {
	counts := map[string]int{}
	for _, t := range tokens {
		counts[t]++
	}

	var tags []string
	bestTag, bestHits := "", 0
	for tag, terms := range topicBuckets {
		hits := 0
		for _, term := range terms {
			hits += counts[term]
		}
		if hits >= 2 {
			tags = append(tags, tag)
		}
		if hits > bestHits {
			bestTag, bestHits = tag, hits
		}
	}

	if len(tags) == 0 && bestHits > 0 {
		tags = append(tags, bestTag)
	}

	sort.Strings(tags)
	return tags
}

// tokenize lowercases and splits text, returning the word tokens and the
// word count of each detected sentence. It degrades to whitespace splitting
// if the NLP pipeline rejects the text.
func tokenize(text string) ([]string, []int) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var rawTokens []string
	var sentenceLens []int

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err == nil {
		for _, tok := range doc.Tokens() {
			rawTokens = append(rawTokens, tok.Text)
		}
		for _, s := range doc.Sentences() {
			sentenceLens = append(sentenceLens, len(strings.Fields(s.Text)))
		}
	} else {
		rawTokens = strings.Fields(text)
		sentenceLens = []int{len(rawTokens)}
	}

	tokens := make([]string, 0, len(rawTokens))
	for _, t := range rawTokens {
		t = strings.ToLower(strings.TrimFunc(t, func(r rune) bool {
			return unicode.IsPunct(r) && r != '_'
		}))
		if len(t) < 2 || stopwords[t] {
			continue
		}
		tokens = append(tokens, t)
	}

	return tokens, sentenceLens
}

func looksLikeCode(token string) bool {
	if strings.ContainsAny(token, "_(){}[]<>=/\\.:") {
		return true
	}
	var hasLetter, hasDigit bool
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func cosineMaps(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, va := range a {
		normA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func recordText(rec model.ContentRecord) string {
	if rec.Title == "" {
		return rec.Body
	}
	if rec.Body == "" {
		return rec.Title
	}
	return rec.Title + " " + rec.Body
}
