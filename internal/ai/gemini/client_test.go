package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompt += part.Text
		}
	}
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	resp := &genai.GenerateContentResponse{}
	for _, text := range texts {
		resp.Candidates = append(resp.Candidates, &genai.Candidate{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		})
	}
	return resp
}

func TestGeneratorJoinsCandidates(t *testing.T) {
	models := &fakeModels{resp: textResponse("  first ", "", "second")}
	g := newGenerator(models, "gemini-test")

	output, err := g.GenerateContent(context.Background(), "  hello  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}

	if models.model != "gemini-test" || models.prompt != "hello" {
		t.Fatalf("unexpected call: model=%q prompt=%q", models.model, models.prompt)
	}

	if models.config == nil || models.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type, got %+v", models.config)
	}
}

func TestGeneratorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		models    *fakeModels
		prompt    string
		expect    string
		wantCalls int
	}{
		{
			name:      "empty prompt",
			models:    &fakeModels{resp: textResponse("ok")},
			prompt:    "   ",
			expect:    "prompt must not be empty",
			wantCalls: 0,
		},
		{
			name:      "api error",
			models:    &fakeModels{err: errors.New("boom")},
			prompt:    "hi",
			expect:    "generate content: boom",
			wantCalls: 1,
		},
		{
			name:      "empty response",
			models:    &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{nil, {}}}},
			prompt:    "hi",
			expect:    "empty response",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := newGenerator(tt.models, "")

			_, err := g.GenerateContent(context.Background(), tt.prompt)
			if err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Fatalf("expected error containing %q, got %v", tt.expect, err)
			}
			if tt.models.calls != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, tt.models.calls)
			}
		})
	}
}

func TestGeneratorDefaults(t *testing.T) {
	if got := newGenerator(&fakeModels{}, "  ").Model(); got != defaultModel {
		t.Fatalf("expected default model, got %q", got)
	}

	var g *Generator
	if g.Model() != "" {
		t.Fatal("nil generator should report empty model")
	}
	if _, err := g.GenerateContent(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from nil generator")
	}

	if _, err := NewGenerator(context.Background(), " ", "m"); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
