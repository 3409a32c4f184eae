package models

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Question is a single survey prompt. IDs are 1-based and stable across
// shuffles: presentation order may change per session, column order never does.
type Question struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
}

// DefaultQuestions returns the built-in probability-phrase question set.
// The prompts are the fifteen expressions the instrument was designed around;
// participants map each one to a 0-100 chance.
func DefaultQuestions() []Question {
	phrases := []string{
		"almost certain",
		"highly likely",
		"very good chance",
		"likely",
		"probable",
		"frequently",
		"usually",
		"better than even",
		"about even",
		"we doubt",
		"improbable",
		"unlikely",
		"probably not",
		"little chance",
		"almost no chance",
	}

	questions := make([]Question, len(phrases))
	for i, p := range phrases {
		questions[i] = Question{
			ID:     i + 1,
			Prompt: fmt.Sprintf("If something is %q, how likely is it (0-100)?", p),
		}
	}
	return questions
}

// LoadQuestions reads a question set from a JSON file. The file must contain a
// non-empty array of questions with ids forming exactly 1..N.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}

	if err := ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("invalid question file %s: %w", path, err)
	}
	return questions, nil
}

// ValidateQuestions checks that ids form exactly 1..N and prompts are non-empty.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question set is empty")
	}

	seen := make(map[int]bool, len(questions))
	for _, q := range questions {
		if q.ID < 1 || q.ID > len(questions) {
			return fmt.Errorf("question id %d out of range 1..%d", q.ID, len(questions))
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %d has an empty prompt", q.ID)
		}
	}
	return nil
}
