package review

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/hrygo/veida/store"
)

// memStore is an in-memory CardStore with the same filter semantics as the SQL drivers.
type memStore struct {
	mu      sync.Mutex
	courses map[int32]*store.Course
	cards   map[int32]*store.Flashcard
	reviews []*store.FlashcardReview

	// writeErr, when set, fails every write.
	writeErr error
	// listCalls counts ListFlashcards calls.
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{
		courses: map[int32]*store.Course{},
		cards:   map[int32]*store.Flashcard{},
	}
}

func (m *memStore) addCourse(course *store.Course) *store.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[course.ID] = course
	return course
}

func (m *memStore) addCard(card *store.Flashcard) *store.Flashcard {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *card
	stored.ReviewDates = slices.Clone(card.ReviewDates)
	m.cards[card.ID] = &stored
	return card
}

func (m *memStore) card(id int32) store.Flashcard {
	m.mu.Lock()
	defer m.mu.Unlock()
	card := *m.cards[id]
	card.ReviewDates = slices.Clone(card.ReviewDates)
	return card
}

func (m *memStore) GetCourse(_ context.Context, find *store.FindCourse) (*store.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if find.ID == nil {
		return nil, errors.New("id required")
	}
	return m.courses[*find.ID], nil
}

func (m *memStore) ListFlashcards(_ context.Context, find *store.FindFlashcard) ([]*store.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++

	ids := make([]int32, 0, len(m.cards))
	for id := range m.cards {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	list := []*store.Flashcard{}
	for _, id := range ids {
		card := m.cards[id]
		if find.CreatorID != nil && card.CreatorID != *find.CreatorID {
			continue
		}
		if find.CourseID != nil && card.CourseID != *find.CourseID {
			continue
		}
		if find.IDAfter != nil && card.ID <= *find.IDAfter {
			continue
		}
		if find.ReviewDate != nil && !slices.Contains(card.ReviewDates, *find.ReviewDate) {
			continue
		}
		if v := find.NextStudyDateOnOrBefore; v != nil && card.NextStudyDate != nil && *card.NextStudyDate > *v {
			continue
		}
		copied := *card
		copied.ReviewDates = slices.Clone(card.ReviewDates)
		list = append(list, &copied)
		if find.Limit != nil && len(list) == *find.Limit {
			break
		}
	}
	return list, nil
}

func (m *memStore) UpdateFlashcard(_ context.Context, update *store.UpdateFlashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	card, ok := m.cards[update.ID]
	if !ok {
		return errors.New("flashcard not found")
	}
	if update.LastSeenTs != nil {
		ts := *update.LastSeenTs
		card.LastSeenTs = &ts
	}
	if update.NextStudyDate != nil {
		if *update.NextStudyDate == "" {
			card.NextStudyDate = nil
		} else {
			next := *update.NextStudyDate
			card.NextStudyDate = &next
		}
	}
	return nil
}

func (m *memStore) IncrementFlashcardTimesSeen(_ context.Context, id int32) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	card, ok := m.cards[id]
	if !ok {
		return 0, errors.New("flashcard not found")
	}
	card.TimesSeen++
	return card.TimesSeen, nil
}

func (m *memStore) DeleteFlashcardReviewDates(_ context.Context, delete *store.DeleteFlashcardReviewDate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	var removed int64
	for _, card := range m.cards {
		if delete.FlashcardID != nil && card.ID != *delete.FlashcardID {
			continue
		}
		if delete.CourseID != nil && card.CourseID != *delete.CourseID {
			continue
		}
		if delete.CreatorID != nil && card.CreatorID != *delete.CreatorID {
			continue
		}
		before := len(card.ReviewDates)
		card.ReviewDates = slices.DeleteFunc(card.ReviewDates, func(d string) bool { return d == delete.ReviewDate })
		removed += int64(before - len(card.ReviewDates))
	}
	return removed, nil
}

func (m *memStore) ReplaceFlashcardReviewDates(_ context.Context, flashcardID int32, dates []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.cards[flashcardID].ReviewDates = slices.Clone(dates)
	return nil
}

func (m *memStore) RecordFlashcardReview(_ context.Context, record *store.RecordFlashcardReview) (*store.FlashcardReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	card, ok := m.cards[record.FlashcardID]
	if !ok {
		return nil, errors.New("flashcard not found")
	}
	card.TimesSeen++
	ts := record.ReviewedTs
	card.LastSeenTs = &ts
	if record.PullReviewDate {
		card.ReviewDates = slices.DeleteFunc(card.ReviewDates, func(d string) bool { return d == record.ReviewedDate })
	}
	if record.NextStudyDate != nil {
		next := *record.NextStudyDate
		card.NextStudyDate = &next
	}
	review := &store.FlashcardReview{
		ID:           int32(len(m.reviews) + 1),
		FlashcardID:  card.ID,
		CreatorID:    card.CreatorID,
		CreatedTs:    record.ReviewedTs,
		ReviewedDate: record.ReviewedDate,
		TimesSeen:    card.TimesSeen,
	}
	m.reviews = append(m.reviews, review)
	return review, nil
}

func (m *memStore) ListFlashcardReviews(_ context.Context, find *store.FindFlashcardReview) ([]*store.FlashcardReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []*store.FlashcardReview{}
	for _, review := range m.reviews {
		if find.CreatorID != nil && review.CreatorID != *find.CreatorID {
			continue
		}
		if find.ReviewedDate != nil && review.ReviewedDate != *find.ReviewedDate {
			continue
		}
		if find.FlashcardID != nil && review.FlashcardID != *find.FlashcardID {
			continue
		}
		list = append(list, review)
	}
	return list, nil
}
