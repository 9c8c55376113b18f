package store

import (
	"context"
)

// Concept groups the generated notes, flashcards and questions of one topic in a course.
type Concept struct {
	ID        int32
	CourseID  int32
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64

	Name        string
	Description string
}

type FindConcept struct {
	ID        *int32
	CourseID  *int32
	CreatorID *int32
	Name      *string
}

type UpdateConcept struct {
	ID          int32
	UpdatedTs   *int64
	Name        *string
	Description *string
}

type DeleteConcept struct {
	ID int32
}

func (s *Store) CreateConcept(ctx context.Context, create *Concept) (*Concept, error) {
	return s.driver.CreateConcept(ctx, create)
}

func (s *Store) ListConcepts(ctx context.Context, find *FindConcept) ([]*Concept, error) {
	return s.driver.ListConcepts(ctx, find)
}

func (s *Store) GetConcept(ctx context.Context, find *FindConcept) (*Concept, error) {
	list, err := s.ListConcepts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConcept(ctx context.Context, update *UpdateConcept) (*Concept, error) {
	return s.driver.UpdateConcept(ctx, update)
}

// DeleteConcept removes the concept together with its cards, questions and notes.
func (s *Store) DeleteConcept(ctx context.Context, delete *DeleteConcept) error {
	return s.driver.DeleteConcept(ctx, delete)
}
