package store

import (
	"context"
)

// FlashcardReview is the log entry of one completed study event.
type FlashcardReview struct {
	ID           int32
	FlashcardID  int32
	CreatorID    int32
	CreatedTs    int64
	ReviewedDate string
	// TimesSeen is the card counter after this review.
	TimesSeen int32
}

// RecordFlashcardReview describes one study event: the counter is incremented,
// last seen is set and, depending on the schedule in use, a review date is
// pulled or the next study date replaced.
type RecordFlashcardReview struct {
	FlashcardID  int32
	ReviewedTs   int64
	ReviewedDate string
	// PullReviewDate removes ReviewedDate from the card's review dates.
	PullReviewDate bool
	// NextStudyDate, when set, replaces the card's next study date.
	NextStudyDate *string
}

type FindFlashcardReview struct {
	FlashcardID  *int32
	CreatorID    *int32
	ReviewedDate *string
}

func (s *Store) RecordFlashcardReview(ctx context.Context, record *RecordFlashcardReview) (*FlashcardReview, error) {
	return s.driver.RecordFlashcardReview(ctx, record)
}

func (s *Store) ListFlashcardReviews(ctx context.Context, find *FindFlashcardReview) ([]*FlashcardReview, error) {
	return s.driver.ListFlashcardReviews(ctx, find)
}
