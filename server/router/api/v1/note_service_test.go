package v1

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/plugin/review"
)

func TestNotes(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, time.Now())
	_, concept := ts.seedConcept("alice", "2030-06-01")
	path := pathf("/api/v1/concepts/%d/notes/summary", concept.ID)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, "alice", nil).Code)

	rec := ts.do(http.MethodPut, path, "alice", map[string]any{"content": "# Cells\n\nThe *basic* unit of life."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[*Note](t, rec)
	assert.Equal(t, "summary", created.Name)
	assert.Empty(t, created.HTML)

	rec = ts.do(http.MethodPut, path, "alice", map[string]any{"content": "# Cells\n\nThe *smallest* unit of life."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[*Note](t, rec).ID)

	rec = ts.do(http.MethodGet, path+"?format=html", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	note := decode[*Note](t, rec)
	assert.Contains(t, note.Content, "*smallest*")
	assert.Contains(t, note.HTML, "<em>smallest</em>")
	assert.Contains(t, note.HTML, `<h1 id="cells">Cells</h1>`)

	rec = ts.do(http.MethodGet, pathf("/api/v1/concepts/%d/notes", concept.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*Note](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPut, path, "bob", map[string]any{"content": "x"}).Code)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, path, "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, path, "alice", nil).Code)
}

func TestQuestions(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, time.Now())
	_, concept := ts.seedConcept("alice", "2030-06-01")
	path := pathf("/api/v1/concepts/%d/questions", concept.ID)

	invalid := []map[string]any{
		{"question": " ", "possible_answers": []string{"a", "b"}, "correct_answer": 0},
		{"question": "Q?", "possible_answers": []string{"a"}, "correct_answer": 0},
		{"question": "Q?", "possible_answers": []string{"a", "b"}, "correct_answer": 2},
		{"question": "Q?", "possible_answers": []string{"a", "b"}, "correct_answer": -1},
	}
	for _, body := range invalid {
		rec := ts.do(http.MethodPost, path, "alice", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	var ids []int32
	for _, q := range []string{"Which organelle makes ATP?", "Which organelle holds DNA?"} {
		rec := ts.do(http.MethodPost, path, "alice", map[string]any{
			"question":         q,
			"possible_answers": []string{"Mitochondrion", "Nucleus", "Ribosome"},
			"correct_answer":   1,
			"explanation":      "See chapter 2.",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[*Question](t, rec).ID)
	}

	rec := ts.do(http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	questions := decode[[]*Question](t, rec)
	require.Len(t, questions, 2)
	assert.Equal(t, int32(0), questions[0].Position)
	assert.Equal(t, int32(1), questions[1].Position)
	assert.Equal(t, []string{"Mitochondrion", "Nucleus", "Ribosome"}, questions[0].PossibleAnswers)
	assert.Equal(t, int32(1), questions[0].CorrectAnswer)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, pathf("/api/v1/questions/%d", ids[0]), "bob", nil).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, pathf("/api/v1/questions/%d", ids[0]), "alice", nil).Code)

	rec = ts.do(http.MethodGet, path, "alice", nil)
	assert.Len(t, decode[[]*Question](t, rec), 1)
}

func TestAccountPushToken(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, time.Now())

	rec := ts.do(http.MethodGet, "/api/v1/account", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	account := decode[*Account](t, rec)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.False(t, account.HasPushToken)
	assert.False(t, account.Premium)

	rec = ts.do(http.MethodPut, "/api/v1/account/push-token", "alice", map[string]any{"token": "device-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[*Account](t, rec).HasPushToken)

	rec = ts.do(http.MethodGet, "/api/v1/account", "alice", nil)
	assert.True(t, decode[*Account](t, rec).HasPushToken)

	rec = ts.do(http.MethodPut, "/api/v1/account/push-token", "alice", map[string]any{"token": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[*Account](t, rec).HasPushToken)

	rec = ts.do(http.MethodGet, "/api/v1/account", "bob", nil)
	other := decode[*Account](t, rec)
	assert.NotEqual(t, account.ID, other.ID)
}
