package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseQuestion decodes generated question text. The upstream is untrusted:
// markdown fences are stripped and the result must pass Validate.
func ParseQuestion(raw string) (Question, error) {
	content := stripFences(raw)
	if content == "" {
		return Question{}, fmt.Errorf("%w: empty payload", ErrFetch)
	}

	var q Question
	if err := json.Unmarshal([]byte(content), &q); err != nil {
		return Question{}, fmt.Errorf("%w: decode question: %v", ErrFetch, err)
	}
	q.Question = strings.TrimSpace(q.Question)
	q.CorrectAnswer = AnswerKey(strings.ToUpper(strings.TrimSpace(string(q.CorrectAnswer))))
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks that q has a prompt, exactly the options A-D with text, and a correct key among them.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: missing question", ErrFetch)
	}
	if len(q.Answers) != len(AnswerKeys) {
		return fmt.Errorf("%w: expected %d answers, got %d", ErrFetch, len(AnswerKeys), len(q.Answers))
	}
	for _, k := range AnswerKeys {
		if strings.TrimSpace(q.Answers[k]) == "" {
			return fmt.Errorf("%w: missing answer %s", ErrFetch, k)
		}
	}
	if !q.CorrectAnswer.Valid() {
		return fmt.Errorf("%w: invalid correctAnswer %q", ErrFetch, q.CorrectAnswer)
	}
	return nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if len(content) >= 7 && strings.EqualFold(content[:7], "```json") {
		content = content[7:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
