package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"quizrank/internal/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const questionPrompt = `Create ONE multiple-choice question (exactly 1 question) about Marketing, Design (UI/UX) or Branding.
Respond ONLY with raw JSON, no markdown and no extra text, using this structure:
{
  "question": "...",
  "answers": { "A": "...", "B": "...", "C": "...", "D": "..." },
  "correctAnswer": "A"
}
Rules:
- "question" must be clear and objective.
- 4 options A-D, only one correct.
- "correctAnswer" must be a single letter: A, B, C or D.`

// contentGenerator is the slice of *genai.Models the source needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuestionSource asks Gemini for one question per call and validates the reply.
type QuestionSource struct {
	models contentGenerator
	model  string
}

// NewQuestionSource creates a Gemini-backed question source.
func NewQuestionSource(ctx context.Context, apiKey, model string) (*QuestionSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newQuestionSource(client.Models, model), nil
}

func newQuestionSource(models contentGenerator, model string) *QuestionSource {
	if model == "" {
		model = DefaultModel
	}
	return &QuestionSource{models: models, model: model}
}

// Model returns the configured model name.
func (s *QuestionSource) Model() string {
	return s.model
}

func (s *QuestionSource) NextQuestion(ctx context.Context) (domain.Question, error) {
	resp, err := s.models.GenerateContent(ctx, s.model,
		genai.Text(questionPrompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: gemini generate: %v", domain.ErrFetch, err)
	}
	return domain.ParseQuestion(responseText(resp))
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
