package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/plugin/review"
)

func TestCreateFlashcardSchedulesReviews(t *testing.T) {
	tests := []struct {
		name     string
		strategy review.Strategy
		examDate string
		want     []string
	}{
		{
			name:     "ratio",
			strategy: review.StrategyRatio,
			examDate: "2024-02-15",
			want:     []string{"2024-01-02", "2024-01-05", "2024-01-10", "2024-01-16", "2024-01-26", "2024-02-04", "2024-02-15"},
		},
		{
			name:     "fixed with a short gap ends on the exam",
			strategy: review.StrategyFixed,
			examDate: "2024-01-11",
			want:     []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-11"},
		},
		{
			name:     "exam already passed",
			strategy: review.StrategyRatio,
			examDate: "2023-12-20",
			want:     []string{"2024-01-01"},
		},
		{
			name:     "dynamic keeps no dates",
			strategy: review.StrategyDynamic,
			examDate: "2024-02-15",
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.strategy, date(t, "2024-01-01 10:00"))
			_, concept := ts.seedConcept("alice", tt.examDate)

			card := ts.createCard("alice", concept, "What is a cell?")
			assert.Equal(t, tt.want, card.ReviewDates)
			assert.Zero(t, card.TimesSeen)
			assert.Nil(t, card.NextStudyDate)
			assert.Equal(t, date(t, "2024-01-01 10:00").Unix(), card.CreatedTs)

			rec := ts.do(http.MethodGet, "/api/v1/flashcards/"+card.UID, "alice", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[*Flashcard](t, rec).ReviewDates)
		})
	}
}

func TestFlashcardCRUD(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, date(t, "2024-01-01 10:00"))
	_, concept := ts.seedConcept("alice", "2024-02-15")

	first := ts.createCard("alice", concept, "Powerhouse of the cell?")
	second := ts.createCard("alice", concept, "Site of protein synthesis?")
	assert.Equal(t, int32(0), first.Position)
	assert.Equal(t, int32(1), second.Position)
	assert.NotEqual(t, first.UID, second.UID)

	t.Run("front and back are required", func(t *testing.T) {
		rec := ts.do(http.MethodPost, pathf("/api/v1/concepts/%d/flashcards", concept.ID), "alice", map[string]any{"front": "q", "back": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update keeps progress", func(t *testing.T) {
		require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/flashcards/"+first.UID+"/view", "alice", nil).Code)

		rec := ts.do(http.MethodPatch, "/api/v1/flashcards/"+first.UID, "alice", map[string]any{"back": "Mitochondria", "position": 5})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[*Flashcard](t, rec)
		assert.Equal(t, "Mitochondria", updated.Back)
		assert.Equal(t, first.Front, updated.Front)
		assert.Equal(t, int32(5), updated.Position)
		assert.Equal(t, int32(1), updated.TimesSeen)
		assert.Equal(t, first.ReviewDates, updated.ReviewDates)

		rec = ts.do(http.MethodPatch, "/api/v1/flashcards/"+first.UID, "alice", map[string]any{"front": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cards are private", func(t *testing.T) {
		for _, req := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/flashcards/" + first.UID},
			{http.MethodPost, "/api/v1/flashcards/" + first.UID + "/review"},
			{http.MethodDelete, "/api/v1/flashcards/" + first.UID},
			{http.MethodGet, pathf("/api/v1/concepts/%d/flashcards", concept.ID)},
		} {
			rec := ts.do(req.method, req.path, "bob", nil)
			assert.Equal(t, http.StatusNotFound, rec.Code, req.path)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/v1/flashcards/"+second.UID, "alice", nil).Code)
		assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v1/flashcards/"+second.UID, "alice", nil).Code)

		rec := ts.do(http.MethodGet, pathf("/api/v1/concepts/%d/flashcards", concept.ID), "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cards := decode[[]*Flashcard](t, rec)
		require.Len(t, cards, 1)
		assert.Equal(t, first.UID, cards[0].UID)
	})

	t.Run("unknown card", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/flashcards/does-not-exist", "alice", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
	})
}
