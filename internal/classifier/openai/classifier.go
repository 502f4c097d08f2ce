package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loanbox/orchestrator/internal/core/ports"
)

const (
	defaultMaxCompletionTokens = 25000
	defaultMaxPurposeTokens    = 512

	systemPrompt = "You are a financial risk analyst specializing in detecting risky or speculative loan purposes."
)

// Classifier scores loan purposes with a chat completion model.
type Classifier struct {
	client              *Client
	truncator           *Truncator
	maxPurposeTokens    int
	maxCompletionTokens int
	logger              *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithMaxPurposeTokens caps the loan purpose sent to the model. Zero or less
// sends the purpose whole.
func WithMaxPurposeTokens(n int) ClassifierOption {
	return func(c *Classifier) {
		c.maxPurposeTokens = n
	}
}

// WithMaxCompletionTokens sets max_completion_tokens on each request.
func WithMaxCompletionTokens(n int) ClassifierOption {
	return func(c *Classifier) {
		c.maxCompletionTokens = n
	}
}

// WithLogger sets the logger for the classifier.
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a classifier over client.
func NewClassifier(client *Client, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		client:              client,
		truncator:           NewTruncator(),
		maxPurposeTokens:    defaultMaxPurposeTokens,
		maxCompletionTokens: defaultMaxCompletionTokens,
		logger:              slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify asks the model for a risk score, detected risks and confidence.
func (c *Classifier) Classify(ctx context.Context, purpose string, terms []string, model string) (*ports.Classification, error) {
	text, count, err := c.truncator.Truncate(model, purpose, c.maxPurposeTokens)
	if err != nil {
		return nil, err
	}
	if text != purpose {
		c.logger.Debug("loan purpose truncated",
			slog.Int("tokens", count),
			slog.Int("max_tokens", c.maxPurposeTokens),
		)
	}

	resp, err := c.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model: model,
		Messages: []ChatCompletionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, terms)},
		},
		MaxCompletionTokens: c.maxCompletionTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}

	return parseClassification(resp.Choices[0].Message.Content)
}

func buildPrompt(purpose string, terms []string) string {
	var b strings.Builder
	b.WriteString("Analyze the following loan purpose for risky or speculative intent.\n\n")
	fmt.Fprintf(&b, "Loan purpose: \"%s\"\n\n", purpose)
	fmt.Fprintf(&b, "Risky/speculative keywords to watch for: %s\n\n", strings.Join(terms, ", "))
	b.WriteString(`Please provide:
1. A risk score from 0-100 (0=completely safe, 100=extremely risky/speculative)
2. List any detected risky terms or concerns
3. Your confidence level (0.0-1.0)

Respond in this exact JSON format:
{
  "risk_score": <number 0-100>,
  "detected_risks": [<list of strings>],
  "confidence": <number 0.0-1.0>
}`)
	return b.String()
}

type classificationBody struct {
	RiskScore     *float64 `json:"risk_score"`
	DetectedRisks []string `json:"detected_risks"`
	Confidence    *float64 `json:"confidence"`
}

// parseClassification reads the model's JSON answer, tolerating a fenced
// code block around it. Missing fields default to score 50 and
// confidence 0.8.
func parseClassification(content string) (*ports.Classification, error) {
	content = strings.TrimSpace(content)
	if _, after, ok := strings.Cut(content, "```json"); ok {
		content, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(content, "```"); ok {
		content, _, _ = strings.Cut(after, "```")
	}
	content = strings.TrimSpace(content)

	var body classificationBody
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return nil, fmt.Errorf("failed to parse classification %q: %w", content, err)
	}

	out := &ports.Classification{
		RiskScore:     50,
		DetectedRisks: body.DetectedRisks,
		Confidence:    0.8,
	}
	if body.RiskScore != nil {
		out.RiskScore = *body.RiskScore
	}
	if body.Confidence != nil {
		out.Confidence = *body.Confidence
	}
	if out.DetectedRisks == nil {
		out.DetectedRisks = []string{}
	}
	return out, nil
}

var _ ports.TextClassifier = (*Classifier)(nil)
