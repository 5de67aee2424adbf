package routing

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// seedCorpus is the small fixed training set for the statistical strategy.
var seedCorpus = []struct {
	text   string
	intent Intent
}{
	{"please cancel ord-1234", IntentCancellation},
	{"cancel my order", IntentCancellation},
	{"refund this order", IntentCancellation},
	{"i want to call off my purchase", IntentCancellation},
	{"undo my order from yesterday", IntentCancellation},
	{"track ord-5678", IntentTracking},
	{"where is my package", IntentTracking},
	{"what's the eta", IntentTracking},
	{"status of my delivery", IntentTracking},
	{"when will my order arrive", IntentTracking},
	{"return policy", IntentProductQA},
	{"bluetooth headphones battery life", IntentProductQA},
	{"shipping times", IntentProductQA},
	{"do you ship internationally", IntentProductQA},
	{"is the speaker waterproof", IntentProductQA},
}

// BayesStrategy is a multinomial naive Bayes classifier built once from the
// seed corpus. Inference is deterministic for a fixed model.
type BayesStrategy struct {
	classPriors map[Intent]float64
	tokenCounts map[Intent]map[string]float64
	classTotals map[Intent]float64
	vocabSize   float64
}

// NewBayesStrategy trains the classifier on the seed corpus.
func NewBayesStrategy() *BayesStrategy {
	s := &BayesStrategy{
		classPriors: make(map[Intent]float64),
		tokenCounts: make(map[Intent]map[string]float64),
		classTotals: make(map[Intent]float64),
	}
	vocab := make(map[string]struct{})
	classDocs := make(map[Intent]float64)
	for _, sample := range seedCorpus {
		classDocs[sample.intent]++
		if s.tokenCounts[sample.intent] == nil {
			s.tokenCounts[sample.intent] = make(map[string]float64)
		}
		for _, tok := range tokenize(sample.text) {
			vocab[tok] = struct{}{}
			s.tokenCounts[sample.intent][tok]++
			s.classTotals[sample.intent]++
		}
	}
	total := float64(len(seedCorpus))
	for _, intent := range Intents {
		s.classPriors[intent] = classDocs[intent] / total
	}
	s.vocabSize = float64(len(vocab))
	return s
}

func (*BayesStrategy) Name() string { return "bayes" }

func (s *BayesStrategy) Route(_ context.Context, text string) Decision {
	tokens := tokenize(text)
	logScores := make(map[Intent]float64, len(Intents))
	for _, intent := range Intents {
		score := math.Log(s.classPriors[intent])
		for _, tok := range tokens {
			// Laplace smoothing keeps unseen tokens from zeroing the class.
			p := (s.tokenCounts[intent][tok] + 1) / (s.classTotals[intent] + s.vocabSize)
			score += math.Log(p)
		}
		logScores[intent] = score
	}

	best := IntentProductQA
	for _, intent := range Intents {
		if logScores[intent] > logScores[best] {
			best = intent
		}
	}

	// Normalize to a posterior for the confidence value.
	var denom float64
	for _, intent := range Intents {
		denom += math.Exp(logScores[intent] - logScores[best])
	}
	confidence := 1 / denom

	return Decision{
		Intent:     best,
		Confidence: confidence,
		Rationale:  map[string]any{"model": "naive-bayes", "tokens": len(tokens)},
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
