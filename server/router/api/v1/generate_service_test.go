package v1

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/plugin/ai"
	"github.com/hrygo/veida/plugin/review"
	"github.com/hrygo/veida/plugin/textextract"
)

const (
	generatedNotes     = "# Photosynthesis\n\nPlants turn light into chemical energy."
	generatedCards     = `[{"front": "What does photosynthesis produce?", "back": "Glucose and oxygen"}, {"front": "Where does it happen?", "back": "Chloroplasts"}]`
	generatedQuestions = "```json\n" + `[{"question": "Which organelle hosts photosynthesis?", "possible_answers": ["Nucleus", "Chloroplast", "Ribosome", "Vacuole"], "correct_answer": "Chloroplast", "why": "Chlorophyll lives there."}]` + "\n```"
)

// scriptedLLM answers by the task named in the system prompt.
type scriptedLLM struct {
	mu        sync.Mutex
	replies   map[string]string
	errs      map[string]error
	userTexts []string
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{
		replies: map[string]string{
			"notes":      generatedNotes,
			"flashcards": generatedCards,
			"questions":  generatedQuestions,
		},
		errs: map[string]error{},
	}
}

func (l *scriptedLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task := "notes"
	switch system := messages[0].Content; {
	case strings.HasPrefix(system, "You write flashcards"):
		task = "flashcards"
	case strings.HasPrefix(system, "You write multiple-choice questions"):
		task = "questions"
	}
	if task == "notes" {
		l.userTexts = append(l.userTexts, messages[len(messages)-1].Content)
	}
	return l.replies[task], l.errs[task]
}

type upload struct {
	filename    string
	contentType string
	content     string
}

func (s *testServer) generate(path, subject string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	s.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(s.t, writer.WriteField(key, value))
	}
	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+file.filename+`"`)
		if file.contentType != "" {
			header.Set("Content-Type", file.contentType)
		}
		part, err := writer.CreatePart(header)
		require.NoError(s.t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(s.t, err)
	}
	require.NoError(s.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(subject))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func newGenerateServer(t *testing.T, llm ai.LLMService) (*testServer, *Course) {
	t.Helper()
	ts := newTestServer(t, review.StrategyRatio, date(t, "2024-01-01 10:00"))
	ts.service.Generator = ai.NewGenerator(llm)
	ts.service.Extractor = textextract.NewClient(&textextract.Config{MaxTextLength: 1000})

	rec := ts.do(http.MethodPost, "/api/v1/courses", "alice", map[string]any{"name": "Botany", "exam_date": "2024-02-15"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return ts, decode[*Course](t, rec)
}

func TestGenerateConcept(t *testing.T) {
	llm := newScriptedLLM()
	ts, course := newGenerateServer(t, llm)
	path := pathf("/api/v1/courses/%d/concepts/generate", course.ID)

	rec := ts.generate(path, "alice", map[string]string{"description": "Week 3"},
		upload{filename: "week3.txt", content: "Light reactions happen in the thylakoid."},
		upload{filename: "extra.md", contentType: "text/markdown", content: "Calvin cycle fixes carbon."},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	generated := decode[*GeneratedConcept](t, rec)

	// The first notes heading names the concept.
	assert.Equal(t, "Photosynthesis", generated.Concept.Name)
	assert.Equal(t, "Week 3", generated.Concept.Description)
	assert.Equal(t, "Photosynthesis", generated.Note.Name)
	assert.Equal(t, generatedNotes, generated.Note.Content)
	assert.False(t, generated.Truncated)

	require.Len(t, generated.Flashcards, 2)
	for i, card := range generated.Flashcards {
		assert.Equal(t, int32(i), card.Position)
		assert.Equal(t, []string{"2024-01-02", "2024-01-05", "2024-01-10", "2024-01-16", "2024-01-26", "2024-02-04", "2024-02-15"}, card.ReviewDates)
	}
	require.Len(t, generated.Questions, 1)
	assert.Equal(t, int32(1), generated.Questions[0].CorrectAnswer)
	assert.Equal(t, "Chlorophyll lives there.", generated.Questions[0].Explanation)

	require.Len(t, llm.userTexts, 1)
	assert.Contains(t, llm.userTexts[0], "thylakoid")
	assert.Contains(t, llm.userTexts[0], "Calvin cycle")

	rec = ts.do(http.MethodGet, pathf("/api/v1/concepts/%d/flashcards", generated.Concept.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*Flashcard](t, rec), 2)

	t.Run("name taken", func(t *testing.T) {
		rec := ts.generate(path, "alice", map[string]string{"name": "Photosynthesis"}, upload{filename: "a.txt", content: "text"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("explicit name", func(t *testing.T) {
		rec := ts.generate(path, "alice", map[string]string{"name": "Leaves"}, upload{filename: "a.txt", content: "text"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "Leaves", decode[*GeneratedConcept](t, rec).Concept.Name)
	})

	t.Run("bad uploads", func(t *testing.T) {
		rec := ts.generate(path, "alice", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.generate(path, "alice", map[string]string{"name": "Roots"}, upload{filename: "photo.png", contentType: "image/png", content: "\x89PNG"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, rec))

		rec = ts.generate(path, "alice", map[string]string{"name": "Roots"}, upload{filename: "blank.txt", contentType: "text/plain", content: "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other users course", func(t *testing.T) {
		rec := ts.generate(path, "bob", nil, upload{filename: "a.txt", content: "text"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGenerateConceptFailureKeepsNothing(t *testing.T) {
	llm := newScriptedLLM()
	llm.errs["questions"] = errors.New("model overloaded")
	ts, course := newGenerateServer(t, llm)

	rec := ts.generate(pathf("/api/v1/courses/%d/concepts/generate", course.ID), "alice", nil,
		upload{filename: "week3.txt", content: "Light reactions happen in the thylakoid."})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "GENERATION_FAILED", errorCode(t, rec))

	rec = ts.do(http.MethodGet, pathf("/api/v1/courses/%d/concepts", course.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]*Concept](t, rec))
}

func TestGenerateConceptDisabled(t *testing.T) {
	ts := newTestServer(t, review.StrategyRatio, date(t, "2024-01-01 10:00"))
	course, _ := ts.seedConcept("alice", "2024-02-15")

	rec := ts.generate(pathf("/api/v1/courses/%d/concepts/generate", course.ID), "alice", nil, upload{filename: "a.txt", content: "text"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, rec))
}
