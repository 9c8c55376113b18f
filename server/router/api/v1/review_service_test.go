package v1

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/plugin/review"
)

func dueUIDs(t *testing.T, ts *testServer, path string) []string {
	t.Helper()
	rec := ts.do(http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	response := decode[*DueFlashcardsResponse](t, rec)
	uids := make([]string, 0, len(response.Flashcards))
	for _, card := range response.Flashcards {
		uids = append(uids, card.UID)
	}
	return uids
}

func TestReviewFlow(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, date(t, "2024-01-01 10:00"))
	course, concept := ts.seedConcept("alice", "2024-02-15")
	exam := date(t, "2024-02-15 00:00")

	first := ts.createCard("alice", concept, "one")
	second := ts.createCard("alice", concept, "two")
	third := ts.createCard("alice", concept, "three")

	assert.Empty(t, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	ts.clock = date(t, "2024-01-02 09:00")
	// Three cards span two store pages.
	assert.Equal(t, []string{first.UID, second.UID, third.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	t.Run("limit", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/flashcards/due?limit=2", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[*DueFlashcardsResponse](t, rec)
		assert.Equal(t, "2024-01-02", response.Date)
		assert.Len(t, response.Flashcards, 2)
		assert.True(t, response.HasMore)

		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/flashcards/due?limit=0", "alice", nil).Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/flashcards/due?course=x", "alice", nil).Code)
		assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, pathf("/api/v1/flashcards/due?course=%d", course.ID), "bob", nil).Code)
	})

	t.Run("review pulls today", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/v1/flashcards/"+first.UID+"/review", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[*ReviewFlashcardResponse](t, rec)
		assert.Equal(t, "2024-01-02", response.ReviewedDate)
		assert.Equal(t, int32(1), response.Flashcard.TimesSeen)
		require.NotNil(t, response.Flashcard.LastSeenTs)
		assert.Equal(t, ts.clock.Unix(), *response.Flashcard.LastSeenTs)
		assert.NotContains(t, response.Flashcard.ReviewDates, "2024-01-02")
		assert.Len(t, response.Flashcard.ReviewDates, 6)

		assert.Equal(t, []string{second.UID, third.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))
	})

	t.Run("stats", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/reviews/stats", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[*review.Stats](t, rec)
		assert.Equal(t, &review.Stats{TotalCards: 3, DueToday: 2, ReviewedToday: 1, Date: "2024-01-02"}, stats)
	})

	t.Run("view and seen", func(t *testing.T) {
		for range 2 {
			require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/flashcards/"+second.UID+"/view", "alice", nil).Code)
		}
		rec := ts.do(http.MethodPost, "/api/v1/flashcards/"+second.UID+"/seen", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		card := decode[*Flashcard](t, rec)
		assert.Equal(t, int32(2), card.TimesSeen)
		require.NotNil(t, card.LastSeenTs)
		assert.Equal(t, ts.clock.Unix(), *card.LastSeenTs)
		// Viewing alone does not complete a review.
		assert.Contains(t, card.ReviewDates, "2024-01-02")
	})

	t.Run("remove today from one card", func(t *testing.T) {
		for range 2 {
			rec := ts.do(http.MethodDelete, "/api/v1/flashcards/"+second.UID+"/review-dates/today", "alice", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, decode[*Flashcard](t, rec).ReviewDates, "2024-01-02")
		}
		assert.Equal(t, []string{third.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))
	})

	t.Run("remove today from a course", func(t *testing.T) {
		path := pathf("/api/v1/courses/%d/review-dates/today", course.ID)
		rec := ts.do(http.MethodDelete, path, "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, &RemoveReviewDatesResponse{Date: "2024-01-02", Removed: 1}, decode[*RemoveReviewDatesResponse](t, rec))

		rec = ts.do(http.MethodDelete, path, "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, decode[*RemoveReviewDatesResponse](t, rec).Removed)
		assert.Empty(t, dueUIDs(t, ts, pathf("/api/v1/flashcards/due?course=%d", course.ID)))
	})

	t.Run("reset schedule starts from today", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/v1/flashcards/"+first.UID+"/reset-schedule", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		card := decode[*Flashcard](t, rec)
		assert.Equal(t, review.RatioSchedule(ts.clock, exam, time.UTC), card.ReviewDates)
		assert.Equal(t, "2024-01-02", card.ReviewDates[0])
		assert.Equal(t, int32(1), card.TimesSeen)
		assert.Equal(t, []string{first.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))
	})

	t.Run("next study date", func(t *testing.T) {
		want := review.NextStudyDate(ts.clock, exam, 2, time.UTC)

		rec := ts.do(http.MethodGet, "/api/v1/flashcards/"+second.UID+"/next-study-date", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decode[*NextStudyDateResponse](t, rec).NextStudyDate)

		rec = ts.do(http.MethodGet, "/api/v1/flashcards/"+second.UID, "alice", nil)
		assert.Nil(t, decode[*Flashcard](t, rec).NextStudyDate)

		rec = ts.do(http.MethodPost, "/api/v1/flashcards/"+second.UID+"/next-study-date", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		card := decode[*Flashcard](t, rec)
		require.NotNil(t, card.NextStudyDate)
		assert.Equal(t, want, *card.NextStudyDate)
	})
}

func TestDynamicReviewFlow(t *testing.T) {
	ts := newTestServer(t, review.StrategyDynamic, date(t, "2024-01-01 10:00"))
	_, concept := ts.seedConcept("alice", "2024-02-15")
	exam := date(t, "2024-02-15 00:00")

	card := ts.createCard("alice", concept, "dynamic")
	assert.Empty(t, card.ReviewDates)
	// A card without a next study date is due at once.
	assert.Equal(t, []string{card.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	rec := ts.do(http.MethodPost, "/api/v1/flashcards/"+card.UID+"/review", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewed := decode[*ReviewFlashcardResponse](t, rec).Flashcard
	next := review.NextStudyDate(ts.clock, exam, 0, time.UTC)
	require.NotNil(t, reviewed.NextStudyDate)
	assert.Equal(t, next, *reviewed.NextStudyDate)
	assert.Equal(t, int32(1), reviewed.TimesSeen)
	assert.Empty(t, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	nextDay, err := time.ParseInLocation("2006-01-02", next, time.UTC)
	require.NoError(t, err)
	ts.clock = nextDay.Add(8 * time.Hour)
	assert.Equal(t, []string{card.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	// The second review uses the next, longer interval.
	rec = ts.do(http.MethodPost, "/api/v1/flashcards/"+card.UID+"/review", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reviewed = decode[*ReviewFlashcardResponse](t, rec).Flashcard
	assert.Equal(t, review.NextStudyDate(ts.clock, exam, 1, time.UTC), *reviewed.NextStudyDate)
	assert.Empty(t, dueUIDs(t, ts, "/api/v1/flashcards/due"))

	rec = ts.do(http.MethodPost, "/api/v1/flashcards/"+card.UID+"/reset-schedule", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[*Flashcard](t, rec).NextStudyDate)
	assert.Equal(t, []string{card.UID}, dueUIDs(t, ts, "/api/v1/flashcards/due"))
}
