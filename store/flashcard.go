package store

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
)

// Flashcard is a front/back card of a concept together with its study progress.
type Flashcard struct {
	ID        int32
	UID       string
	CourseID  int32
	ConceptID int32
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64
	Position  int32

	Front string
	Back  string

	// TimesSeen counts completed study events; it only grows.
	TimesSeen int32
	// LastSeenTs is nil until the card is first seen.
	LastSeenTs *int64
	// NextStudyDate is the "2006-01-02" date set by dynamic scheduling.
	NextStudyDate *string
	// ReviewDates is the ascending "2006-01-02" schedule fixed at creation.
	ReviewDates []string
}

type FindFlashcard struct {
	ID        *int32
	UID       *string
	CourseID  *int32
	ConceptID *int32
	CreatorID *int32

	// ReviewDate matches cards whose schedule contains this date.
	ReviewDate *string
	// NextStudyDateOnOrBefore matches cards whose next study date is at or before
	// this date, plus cards without one (never studied).
	NextStudyDateOnOrBefore *string

	// IDAfter enables keyset pagination ordered by id.
	IDAfter *int32
	Limit   *int
}

type UpdateFlashcard struct {
	ID         int32
	UpdatedTs  *int64
	Front      *string
	Back       *string
	Position   *int32
	LastSeenTs *int64
	// NextStudyDate set to "" clears the date.
	NextStudyDate *string
}

type DeleteFlashcard struct {
	ID int32
}

// DeleteFlashcardReviewDate selects the review dates to pull.
// At least one of FlashcardID, CourseID or CreatorID must be set.
type DeleteFlashcardReviewDate struct {
	FlashcardID *int32
	CourseID    *int32
	CreatorID   *int32
	ReviewDate  string
}

// CreateFlashcard stores the card with its review dates, generating a uid when missing.
func (s *Store) CreateFlashcard(ctx context.Context, create *Flashcard) (*Flashcard, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateFlashcard(ctx, create)
}

func (s *Store) ListFlashcards(ctx context.Context, find *FindFlashcard) ([]*Flashcard, error) {
	return s.driver.ListFlashcards(ctx, find)
}

func (s *Store) GetFlashcard(ctx context.Context, find *FindFlashcard) (*Flashcard, error) {
	list, err := s.ListFlashcards(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateFlashcard(ctx context.Context, update *UpdateFlashcard) error {
	return s.driver.UpdateFlashcard(ctx, update)
}

func (s *Store) DeleteFlashcard(ctx context.Context, delete *DeleteFlashcard) error {
	return s.driver.DeleteFlashcard(ctx, delete)
}

func (s *Store) IncrementFlashcardTimesSeen(ctx context.Context, id int32) (int32, error) {
	return s.driver.IncrementFlashcardTimesSeen(ctx, id)
}

func (s *Store) DeleteFlashcardReviewDates(ctx context.Context, delete *DeleteFlashcardReviewDate) (int64, error) {
	return s.driver.DeleteFlashcardReviewDates(ctx, delete)
}

func (s *Store) ReplaceFlashcardReviewDates(ctx context.Context, flashcardID int32, dates []string) error {
	return s.driver.ReplaceFlashcardReviewDates(ctx, flashcardID, dates)
}
