package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"assessment-service/internal/models"
)

// SeedQuestions loads a JSON array of questions from path into repo. It is
// used to populate the in-memory store in local mode.
func SeedQuestions(ctx context.Context, repo QuestionRepository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i := range questions {
		if err := repo.Create(ctx, &questions[i]); err != nil {
			return i, fmt.Errorf("seed question %d: %w", i, err)
		}
	}
	return len(questions), nil
}
