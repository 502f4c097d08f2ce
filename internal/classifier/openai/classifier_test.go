package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loanbox/orchestrator/internal/testutil"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		score      float64
		confidence float64
		risks      int
		wantErr    bool
	}{
		{"plain", `{"risk_score": 30, "detected_risks": [], "confidence": 0.6}`, 30, 0.6, 0, false},
		{"json fence", "```json\n{\"risk_score\": 85, \"detected_risks\": [\"crypto\"], \"confidence\": 0.9}\n```", 85, 0.9, 1, false},
		{"bare fence", "Here you go:\n```\n{\"risk_score\": 10}\n```", 10, 0.8, 0, false},
		{"defaults", `{}`, 50, 0.8, 0, false},
		{"not json", "I think this is risky", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClassification() error = %v", err)
			}
			if got.RiskScore != tt.score || got.Confidence != tt.confidence || len(got.DetectedRisks) != tt.risks {
				t.Errorf("parseClassification() = %+v", got)
			}
		})
	}
}

func TestBuildPrompt_PurposeVerbatim(t *testing.T) {
	prompt := buildPrompt(`crédito para "bitcoin"`, []string{"bitcoin"})
	if !strings.Contains(prompt, `Loan purpose: "crédito para "bitcoin""`) {
		t.Errorf("purpose was not embedded verbatim:\n%s", prompt)
	}
}

func TestClassifier_Classify(t *testing.T) {
	var captured ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"risk_score\": 15, \"detected_risks\": [], \"confidence\": 0.85}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c := NewClassifier(NewClient("sk-test", WithBaseURL(server.URL+"/")))
	got, err := c.Classify(context.Background(), "home renovation", []string{"gambling", "crypto"}, "gpt-5-mini")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.RiskScore != 15 || got.Confidence != 0.85 {
		t.Errorf("Classify() = %+v", got)
	}

	if captured.Model != "gpt-5-mini" || len(captured.Messages) != 2 {
		t.Fatalf("request = %+v", captured)
	}
	if captured.MaxCompletionTokens != defaultMaxCompletionTokens {
		t.Errorf("max_completion_tokens = %d", captured.MaxCompletionTokens)
	}
	prompt := captured.Messages[1].Content
	if !strings.Contains(prompt, `Loan purpose: "home renovation"`) || !strings.Contains(prompt, "gambling, crypto") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestClassifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	c := NewClassifier(NewClient("sk-test", WithBaseURL(server.URL)))
	_, err := c.Classify(context.Background(), "car", nil, "gpt-5-mini")
	if err == nil || !strings.Contains(err.Error(), "rate_limit_exceeded") {
		t.Errorf("Classify() error = %v", err)
	}
}

func TestClassifier_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClassifier(NewClient("k", WithBaseURL(server.URL))).Classify(context.Background(), "car", nil, "gpt-5-mini")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestClassifier_Cassette(t *testing.T) {
	r := testutil.NewVCRRecorder(t, "classify_gambling")
	c := NewClassifier(NewClient("sk-test", WithHTTPClient(testutil.VCRHTTPClient(r))))

	got, err := c.Classify(context.Background(), "weekend at the casino, gambling", []string{"gambling", "casino"}, "gpt-5-mini")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.RiskScore != 92 {
		t.Errorf("RiskScore = %v, want 92", got.RiskScore)
	}
	if strings.Join(got.DetectedRisks, ",") != "gambling,casino" {
		t.Errorf("DetectedRisks = %v", got.DetectedRisks)
	}
}

func TestClassifier_CassetteInvalidKey(t *testing.T) {
	r := testutil.NewVCRRecorder(t, "classify_invalid_key")
	c := NewClassifier(NewClient("bad", WithHTTPClient(testutil.VCRHTTPClient(r))))

	_, err := c.Classify(context.Background(), "car", nil, "gpt-5-mini")
	if err == nil || !strings.Contains(err.Error(), "invalid_api_key") {
		t.Errorf("Classify() error = %v", err)
	}
}

func TestTruncator(t *testing.T) {
	tr := NewTruncator()
	long := strings.Repeat("renovate the kitchen and bathroom ", 50)

	out, count, err := tr.Truncate("gpt-5-mini", long, 16)
	if err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	if count <= 16 {
		t.Errorf("count = %d, want more than 16", count)
	}
	if len(out) >= len(long) || !strings.HasPrefix(long, out) {
		t.Errorf("Truncate() = %q", out)
	}

	short := "car"
	if out, _, _ := tr.Truncate("gpt-4", short, 16); out != short {
		t.Errorf("Truncate(short) = %q", out)
	}
}
