package review

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/hrygo/veida/internal/timezone"
	"github.com/hrygo/veida/store"
)

// CardStore is the persistence the tracker needs. *store.Store implements it.
type CardStore interface {
	GetCourse(ctx context.Context, find *store.FindCourse) (*store.Course, error)
	ListFlashcards(ctx context.Context, find *store.FindFlashcard) ([]*store.Flashcard, error)
	UpdateFlashcard(ctx context.Context, update *store.UpdateFlashcard) error
	IncrementFlashcardTimesSeen(ctx context.Context, id int32) (int32, error)
	DeleteFlashcardReviewDates(ctx context.Context, delete *store.DeleteFlashcardReviewDate) (int64, error)
	ReplaceFlashcardReviewDates(ctx context.Context, flashcardID int32, dates []string) error
	RecordFlashcardReview(ctx context.Context, record *store.RecordFlashcardReview) (*store.FlashcardReview, error)
	ListFlashcardReviews(ctx context.Context, find *store.FindFlashcardReview) ([]*store.FlashcardReview, error)
}

var _ CardStore = (*store.Store)(nil)

// Tracker applies study events to flashcards and answers due-card queries.
// Each method mirrors a successful write onto the card it was given.
type Tracker struct {
	store  CardStore
	config Config
}

// NewTracker creates a tracker over s. Zero config fields take DefaultConfig values.
func NewTracker(s CardStore, config Config) *Tracker {
	defaults := DefaultConfig()
	if config.Strategy == "" {
		config.Strategy = defaults.Strategy
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Tracker{
		store:  s,
		config: config,
	}
}

// Strategy returns the active scheduling strategy.
func (t *Tracker) Strategy() Strategy {
	return t.config.Strategy
}

// Location returns the canonical timezone.
func (t *Tracker) Location() *time.Location {
	return t.config.Location
}

// Today returns the current calendar date in the canonical timezone.
func (t *Tracker) Today() string {
	return timezone.Today(t.config.Now(), t.config.Location)
}

// ScheduleCard computes the review dates of a card created at created for a
// course whose exam is examDate. It is called once, when the card is created.
func (t *Tracker) ScheduleCard(created time.Time, examDate string) ([]string, error) {
	exam, err := ParseExamDateIn(examDate, t.config.Location)
	if err != nil {
		return nil, err
	}
	return t.config.Strategy.ReviewDates(created, exam, t.config.Location), nil
}

// RecordView adds one to the card's times seen. The increment is atomic in the store.
func (t *Tracker) RecordView(ctx context.Context, card *store.Flashcard) error {
	timesSeen, err := t.store.IncrementFlashcardTimesSeen(ctx, card.ID)
	if err != nil {
		return writeFailed("record view", err)
	}
	card.TimesSeen = timesSeen
	return nil
}

// MarkLastSeen sets the card's last seen time to now.
func (t *Tracker) MarkLastSeen(ctx context.Context, card *store.Flashcard) error {
	ts := t.config.Now().Unix()
	if err := t.store.UpdateFlashcard(ctx, &store.UpdateFlashcard{
		ID:         card.ID,
		UpdatedTs:  &ts,
		LastSeenTs: &ts,
	}); err != nil {
		return writeFailed("mark last seen", err)
	}
	card.LastSeenTs = &ts
	return nil
}

// ComputeNextStudyDate returns the dynamic next study date of the card from
// its current times seen. Nothing is written.
func (t *Tracker) ComputeNextStudyDate(ctx context.Context, card *store.Flashcard) (string, error) {
	exam, err := t.examDate(ctx, card)
	if err != nil {
		return "", err
	}
	return NextStudyDate(t.config.Now(), exam, int(card.TimesSeen), t.config.Location), nil
}

// UpdateNextStudyDate computes and stores the card's next study date.
func (t *Tracker) UpdateNextStudyDate(ctx context.Context, card *store.Flashcard) (string, error) {
	next, err := t.ComputeNextStudyDate(ctx, card)
	if err != nil {
		return "", err
	}

	ts := t.config.Now().Unix()
	if err := t.store.UpdateFlashcard(ctx, &store.UpdateFlashcard{
		ID:            card.ID,
		UpdatedTs:     &ts,
		NextStudyDate: &next,
	}); err != nil {
		return "", writeFailed("update next study date", err)
	}
	card.NextStudyDate = &next
	return next, nil
}

// RemoveTodaysReviewDate pulls today from the card's review dates.
// A card not scheduled for today is left as is.
func (t *Tracker) RemoveTodaysReviewDate(ctx context.Context, card *store.Flashcard) error {
	today := t.Today()
	if _, err := t.store.DeleteFlashcardReviewDates(ctx, &store.DeleteFlashcardReviewDate{
		FlashcardID: &card.ID,
		ReviewDate:  today,
	}); err != nil {
		return writeFailed("remove review date", err)
	}
	card.ReviewDates = withoutDate(card.ReviewDates, today)
	return nil
}

// RemoveTodaysReviewDates pulls today from every card of a course owned by
// creatorID and returns how many dates were removed.
func (t *Tracker) RemoveTodaysReviewDates(ctx context.Context, creatorID, courseID int32) (int64, error) {
	removed, err := t.store.DeleteFlashcardReviewDates(ctx, &store.DeleteFlashcardReviewDate{
		CourseID:   &courseID,
		CreatorID:  &creatorID,
		ReviewDate: t.Today(),
	})
	if err != nil {
		return 0, writeFailed("remove review dates", err)
	}
	return removed, nil
}

// DueToday yields the cards of creatorID that are due today, optionally
// restricted to one course. With review dates a card is due when its schedule
// contains today; with the dynamic strategy when its next study date is today,
// already past, or not set yet.
//
// The sequence reads the store page by page as it is consumed and starts over
// on every iteration, so it always reflects the current state.
func (t *Tracker) DueToday(ctx context.Context, creatorID int32, courseID *int32) iter.Seq2[*store.Flashcard, error] {
	return func(yield func(*store.Flashcard, error) bool) {
		today := t.Today()
		limit := t.config.PageSize
		var after *int32

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			find := &store.FindFlashcard{
				CreatorID: &creatorID,
				CourseID:  courseID,
				IDAfter:   after,
				Limit:     &limit,
			}
			if t.config.Strategy.UsesReviewDates() {
				find.ReviewDate = &today
			} else {
				find.NextStudyDateOnOrBefore = &today
			}

			cards, err := t.store.ListFlashcards(ctx, find)
			if err != nil {
				yield(nil, fmt.Errorf("list due flashcards: %w", err))
				return
			}
			for _, card := range cards {
				if !yield(card, nil) {
					return
				}
			}
			if len(cards) < limit {
				return
			}
			last := cards[len(cards)-1].ID
			after = &last
		}
	}
}

// MarkReviewed applies one completed study event all-or-nothing: times seen
// is incremented, last seen set, and either today's review date pulled or
// the next study date moved, depending on the strategy.
func (t *Tracker) MarkReviewed(ctx context.Context, card *store.Flashcard) (*store.FlashcardReview, error) {
	now := t.config.Now()
	record := &store.RecordFlashcardReview{
		FlashcardID:  card.ID,
		ReviewedTs:   now.Unix(),
		ReviewedDate: timezone.FormatDate(now, t.config.Location),
	}

	if t.config.Strategy.UsesReviewDates() {
		record.PullReviewDate = true
	} else {
		// The interval is chosen from the count before this review.
		next, err := t.ComputeNextStudyDate(ctx, card)
		if err != nil {
			return nil, err
		}
		record.NextStudyDate = &next
	}

	review, err := t.store.RecordFlashcardReview(ctx, record)
	if err != nil {
		return nil, writeFailed("mark reviewed", err)
	}

	card.TimesSeen = review.TimesSeen
	card.LastSeenTs = &record.ReviewedTs
	if record.PullReviewDate {
		card.ReviewDates = withoutDate(card.ReviewDates, record.ReviewedDate)
	}
	if record.NextStudyDate != nil {
		card.NextStudyDate = record.NextStudyDate
	}

	slog.Debug("flashcard reviewed",
		slog.String("uid", card.UID),
		slog.Int("times_seen", int(card.TimesSeen)),
		slog.String("strategy", string(t.config.Strategy)))
	return review, nil
}

// ResetSchedule restarts the card's schedule from today. Review dates are
// recomputed against the course exam; a dynamic card loses its next study
// date and becomes due at once.
func (t *Tracker) ResetSchedule(ctx context.Context, card *store.Flashcard) error {
	exam, err := t.examDate(ctx, card)
	if err != nil {
		return err
	}

	if !t.config.Strategy.UsesReviewDates() {
		ts := t.config.Now().Unix()
		cleared := ""
		if err := t.store.UpdateFlashcard(ctx, &store.UpdateFlashcard{
			ID:            card.ID,
			UpdatedTs:     &ts,
			NextStudyDate: &cleared,
		}); err != nil {
			return writeFailed("reset schedule", err)
		}
		card.NextStudyDate = nil
		return nil
	}

	dates := t.config.Strategy.ReviewDates(t.config.Now(), exam, t.config.Location)
	if err := t.store.ReplaceFlashcardReviewDates(ctx, card.ID, dates); err != nil {
		return writeFailed("reset schedule", err)
	}
	card.ReviewDates = dates
	return nil
}

// Stats counts the cards of creatorID, those due today and today's reviews.
func (t *Tracker) Stats(ctx context.Context, creatorID int32) (*Stats, error) {
	today := t.Today()

	cards, err := t.store.ListFlashcards(ctx, &store.FindFlashcard{CreatorID: &creatorID})
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}

	due := 0
	for _, err := range t.DueToday(ctx, creatorID, nil) {
		if err != nil {
			return nil, err
		}
		due++
	}

	reviews, err := t.store.ListFlashcardReviews(ctx, &store.FindFlashcardReview{
		CreatorID:    &creatorID,
		ReviewedDate: &today,
	})
	if err != nil {
		return nil, fmt.Errorf("list flashcard reviews: %w", err)
	}

	return &Stats{
		TotalCards:    len(cards),
		DueToday:      due,
		ReviewedToday: len(reviews),
		Date:          today,
	}, nil
}

func (t *Tracker) examDate(ctx context.Context, card *store.Flashcard) (time.Time, error) {
	course, err := t.store.GetCourse(ctx, &store.FindCourse{ID: &card.CourseID})
	if err != nil {
		return time.Time{}, fmt.Errorf("get course %d: %w", card.CourseID, err)
	}
	if course == nil {
		return time.Time{}, fmt.Errorf("%w: id %d", ErrCourseNotFound, card.CourseID)
	}
	return ParseExamDateIn(course.ExamDate, t.config.Location)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceWriteFailed, err)
}

func withoutDate(dates []string, date string) []string {
	return slices.DeleteFunc(slices.Clone(dates), func(d string) bool { return d == date })
}
