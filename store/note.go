package store

import (
	"context"
)

// Note is a markdown document attached to a concept, unique by name.
type Note struct {
	ID        int32
	ConceptID int32
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64

	Name    string
	Content string
}

type FindNote struct {
	ID        *int32
	ConceptID *int32
	CreatorID *int32
	Name      *string
}

type DeleteNote struct {
	ID int32
}

// UpsertNote creates the note or replaces the content of the note with the same name.
func (s *Store) UpsertNote(ctx context.Context, upsert *Note) (*Note, error) {
	return s.driver.UpsertNote(ctx, upsert)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	list, err := s.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}
