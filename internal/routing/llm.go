package routing

import (
	"context"
	"log"
)

// ClassifiedIntent is the structured output of a model-backed classification.
type ClassifiedIntent struct {
	Intent     string
	Confidence float64
	Rationale  string
}

// Classifier is the language-model dependency of the LLM strategy.
type Classifier interface {
	ClassifyIntent(ctx context.Context, text string) (ClassifiedIntent, error)
}

// LLMStrategy asks a language model for the intent and degrades to the
// keyword strategy on any call or parse failure. It never surfaces an error
// to the orchestrator.
type LLMStrategy struct {
	classifier Classifier
	fallback   *KeywordStrategy
}

// NewLLMStrategy wires the model-backed strategy with its keyword fallback.
func NewLLMStrategy(classifier Classifier) *LLMStrategy {
	return &LLMStrategy{classifier: classifier, fallback: NewKeywordStrategy()}
}

func (*LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) Route(ctx context.Context, text string) Decision {
	result, err := s.classifier.ClassifyIntent(ctx, text)
	if err != nil {
		log.Printf("[router] llm classification failed, using keyword fallback: %v", err)
		return s.degrade(ctx, text, err.Error())
	}

	intent, ok := ParseIntent(result.Intent)
	if !ok {
		log.Printf("[router] llm returned unknown intent %q, using keyword fallback", result.Intent)
		return s.degrade(ctx, text, "unknown intent label: "+result.Intent)
	}

	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Decision{
		Intent:     intent,
		Confidence: confidence,
		Rationale:  map[string]any{"rationale": result.Rationale},
	}
}

func (s *LLMStrategy) degrade(ctx context.Context, text, cause string) Decision {
	decision := s.fallback.Route(ctx, text)
	decision.Rationale["llm_error"] = cause
	return decision
}
