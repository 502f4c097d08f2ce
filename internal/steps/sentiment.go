package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
)

// DefaultRiskyTerms are always checked by sentiment_check. The risky_terms
// param adds to this list.
var DefaultRiskyTerms = []string{
	"gambling", "crypto", "betting", "casino", "speculation",
	"bitcoin", "cryptocurrency", "forex", "day trading",
	"stocks speculation", "lottery", "poker", "roulette",
	"slot machines", "sports betting", "ponzi", "pyramid scheme",
}

// DefaultSentimentModel is the classifier model used when api_model is unset.
const DefaultSentimentModel = "gpt-5-mini"

// Analysis methods reported in computed values.
const (
	MethodEmptyPurpose    = "empty_purpose"
	MethodKeywordMatching = "keyword_matching"
	MethodOpenAI          = "openai_api"
)

// SentimentCheck scores the loan purpose for risky or speculative intent.
// It always passes; terminal rules read sentiment_check.risk_score instead.
type SentimentCheck struct {
	classifier ports.TextClassifier
	model      string
	logger     *slog.Logger
}

// SentimentOption configures a SentimentCheck.
type SentimentOption func(*SentimentCheck)

// WithLogger sets the logger used to report classifier failures.
func WithLogger(logger *slog.Logger) SentimentOption {
	return func(s *SentimentCheck) {
		s.logger = logger
	}
}

// WithDefaultModel sets the api_model default reported in the catalog and
// used when a pipeline does not set one.
func WithDefaultModel(model string) SentimentOption {
	return func(s *SentimentCheck) {
		if model != "" {
			s.model = model
		}
	}
}

// NewSentimentCheck creates a sentiment step. A nil classifier means the
// keyword fallback is always used.
func NewSentimentCheck(classifier ports.TextClassifier, opts ...SentimentOption) *SentimentCheck {
	s := &SentimentCheck{
		classifier: classifier,
		model:      DefaultSentimentModel,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sentimentParams struct {
	RiskyTerms []string `mapstructure:"risky_terms"`
	APIModel   string   `mapstructure:"api_model"`
}

type analysis struct {
	score      int
	detected   []string
	confidence float64
	method     string
}

func (*SentimentCheck) Type() string { return domain.StepTypeSentimentCheck }

func (s *SentimentCheck) DefaultParams() map[string]any {
	return map[string]any{
		"risky_terms": []any{},
		"api_model":   s.model,
	}
}

func (s *SentimentCheck) Execute(ctx context.Context, app *domain.Application, params map[string]any) (*domain.StepResult, error) {
	var p sentimentParams
	if err := decodeParams(s.Type(), mergeParams(s.DefaultParams(), params), &p); err != nil {
		return nil, err
	}
	if p.APIModel == "" {
		p.APIModel = s.model
	}

	terms := make([]string, 0, len(DefaultRiskyTerms)+len(p.RiskyTerms))
	terms = append(terms, DefaultRiskyTerms...)
	terms = append(terms, p.RiskyTerms...)

	a := s.analyze(ctx, app.LoanPurpose, terms, p.APIModel)

	msg := fmt.Sprintf("Sentiment Analysis: %s (score: %d/100) - Loan purpose: '%s' - Method: %s",
		riskLevel(a.score), a.score, app.LoanPurpose, a.method)
	if len(a.detected) > 0 {
		msg += " - Detected: " + strings.Join(a.detected, ", ")
	}

	detected := make([]any, len(a.detected))
	for i, d := range a.detected {
		detected[i] = d
	}

	return &domain.StepResult{
		Passed: true,
		ComputedValues: domain.Values{
			"risk_score":      int64(a.score),
			"detected_risks":  detected,
			"confidence":      a.confidence,
			"loan_purpose":    app.LoanPurpose,
			"analysis_method": a.method,
		},
		Message: msg,
	}, nil
}

func (s *SentimentCheck) analyze(ctx context.Context, purpose string, terms []string, model string) analysis {
	if strings.TrimSpace(purpose) == "" {
		return analysis{score: 0, detected: nil, confidence: 1.0, method: MethodEmptyPurpose}
	}

	if s.classifier != nil {
		c, err := s.classifier.Classify(ctx, purpose, terms, model)
		if err == nil && c == nil {
			err = errors.New("classifier returned no result")
		}
		if err == nil {
			return analysis{
				score:      int(c.RiskScore),
				detected:   c.DetectedRisks,
				confidence: c.Confidence,
				method:     MethodOpenAI,
			}
		}
		s.logger.Warn("classifier failed, falling back to keyword matching",
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
	}

	return keywordAnalysis(purpose, terms)
}

func keywordAnalysis(purpose string, terms []string) analysis {
	lower := strings.ToLower(purpose)
	var detected []string
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			detected = append(detected, term)
		}
	}

	if len(detected) > 0 {
		return analysis{
			score:      min(100, 80+5*len(detected)),
			detected:   detected,
			confidence: 0.9,
			method:     MethodKeywordMatching,
		}
	}
	return analysis{score: 20, confidence: 0.7, method: MethodKeywordMatching}
}

func riskLevel(score int) string {
	switch {
	case score >= 70:
		return "HIGH RISK"
	case score >= 40:
		return "MODERATE RISK"
	default:
		return "LOW RISK"
	}
}
