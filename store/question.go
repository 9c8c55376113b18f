package store

import (
	"context"
)

// Question is a multiple-choice question of a concept.
type Question struct {
	ID        int32
	ConceptID int32
	CreatorID int32
	CreatedTs int64
	Position  int32

	Question        string
	PossibleAnswers []string
	// CorrectAnswer indexes PossibleAnswers.
	CorrectAnswer int32
	Explanation   string
}

type FindQuestion struct {
	ID        *int32
	ConceptID *int32
	CreatorID *int32
}

type DeleteQuestion struct {
	ID int32
}

func (s *Store) CreateQuestion(ctx context.Context, create *Question) (*Question, error) {
	return s.driver.CreateQuestion(ctx, create)
}

func (s *Store) ListQuestions(ctx context.Context, find *FindQuestion) ([]*Question, error) {
	return s.driver.ListQuestions(ctx, find)
}

func (s *Store) DeleteQuestion(ctx context.Context, delete *DeleteQuestion) error {
	return s.driver.DeleteQuestion(ctx, delete)
}
