package semantic

import (
	"math"
	"strings"
)

// Blend weights for the independent AI-authorship signals. An explicit tool
// mention dominates but never saturates the score on its own; the structural
// signals cover content that does not announce itself.
const (
	aiMentionWeight    = 0.50
	aiBoilerWeight     = 0.25
	aiUniformityWeight = 0.25

	minSentencesForUniformity = 3
	uniformCVThreshold        = 0.30
)

// aiToolMarkers are explicit markers of AI-assisted authorship.
var aiToolMarkers = []string{
	"copilot",
	"chatgpt",
	"gpt-4",
	"gpt-3",
	"claude",
	"gemini",
	"cursor",
	"codeium",
	"generated with",
	"ai-generated",
	"ai generated",
	"ai-assisted",
	"pair-programmed with ai",
	"auto-generated",
	"autogenerated",
	"co-authored-by: github copilot",
}

// aiBoilerplatePhrases are filler constructions that occur far more often in
// machine-drafted descriptions than in human ones.
var aiBoilerplatePhrases = []string{
	"this pull request introduces",
	"this commit introduces",
	"in order to",
	"furthermore",
	"additionally",
	"it is worth noting",
	"comprehensive",
	"seamless",
	"seamlessly",
	"leverage",
	"leverages",
	"robust",
	"streamline",
	"streamlined",
	"enhance the overall",
	"delve",
	"ensure that the",
	"key changes include",
	"summary of changes",
}

// aiLikelihood estimates how likely the text reflects AI-assisted authorship,
// in [0,1]. It blends several weak signals rather than keying on any single
// marker; callers threshold the score themselves.
func aiLikelihood(text string, sentenceWordCounts []int) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := float64(len(strings.Fields(lower)))
	if words == 0 {
		return 0
	}

	mention := 0.0
	for _, marker := range aiToolMarkers {
		if strings.Contains(lower, marker) {
			mention = 1.0
			break
		}
	}

	hits := 0.0
	for _, phrase := range aiBoilerplatePhrases {
		hits += float64(strings.Count(lower, phrase))
	}
	// Two boilerplate phrases per ~50 words saturates the signal.
	boiler := math.Min(1, hits/(words/25.0+1))

	uniformity := sentenceUniformity(sentenceWordCounts)

	score := aiMentionWeight*mention + aiBoilerWeight*boiler + aiUniformityWeight*uniformity
	return clamp01(score)
}

// sentenceUniformity is high when sentence lengths are unusually even, a
// structural trait of generated prose. Short texts carry no signal.
func sentenceUniformity(wordCounts []int) float64 {
	if len(wordCounts) < minSentencesForUniformity {
		return 0
	}

	var sum float64
	for _, c := range wordCounts {
		sum += float64(c)
	}
	mean := sum / float64(len(wordCounts))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, c := range wordCounts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(wordCounts))
	cv := math.Sqrt(variance) / mean

	if cv >= uniformCVThreshold {
		return 0
	}
	return 1 - cv/uniformCVThreshold
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
