package v1

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/veida/plugin/ai"
	"github.com/hrygo/veida/plugin/textextract"
	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/server/internal/observability"
	"github.com/hrygo/veida/store"
)

const (
	// maxUploadSize caps each uploaded document.
	maxUploadSize = 20 << 20
	// maxUploadFiles caps the documents of one generation.
	maxUploadFiles = 10
)

// GeneratedConcept is the response of the content pipeline.
type GeneratedConcept struct {
	Concept    *Concept     `json:"concept"`
	Note       *Note        `json:"note"`
	Flashcards []*Flashcard `json:"flashcards"`
	Questions  []*Question  `json:"questions"`
	Truncated  bool         `json:"truncated"`
}

// GenerateConcept turns uploaded documents into a new concept: the text is
// extracted, rewritten as notes, and flashcards and questions are generated
// from the notes in parallel. Cards are scheduled as they are stored. Nothing
// is kept when any step fails.
//
// Form fields: file (repeatable), name (defaults to the first notes heading), description.
func (s *APIV1Service) GenerateConcept(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	if s.Generator == nil || s.Extractor == nil {
		return apierrors.ServiceUnavailable("content generation is not configured")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apierrors.InvalidArgument("expected a multipart form")
	}
	files := form.File["file"]
	if len(files) == 0 {
		return apierrors.InvalidArgument("at least one file is required")
	}
	if len(files) > maxUploadFiles {
		return apierrors.InvalidArgument("too many files")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	description := c.FormValue("description")
	if name != "" {
		existing, err := s.Store.GetConcept(ctx, &store.FindConcept{CourseID: &course.ID, Name: &name})
		if err != nil {
			return err
		}
		if existing != nil {
			return apierrors.AlreadyExists("a concept with this name already exists in the course")
		}
	}

	if err := s.generateSemaphore.Acquire(ctx, 1); err != nil {
		return apierrors.ContextCanceled(err)
	}
	defer s.generateSemaphore.Release(1)

	logger := observability.LoggerFromContext(ctx)
	extracted, err := s.extractFiles(ctx, files)
	if err != nil {
		return err
	}
	logger.Info("extracted upload text",
		slog.Int("files", len(files)),
		slog.Int("words", extracted.WordCount),
		slog.Bool("truncated", extracted.Truncated))

	notes, err := s.Generator.GenerateNotes(ctx, extracted.Text)
	if err != nil {
		return apierrors.GenerationFailed("failed to generate notes", err)
	}

	var (
		cards     []ai.GeneratedFlashcard
		questions []ai.GeneratedQuestion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.Generator.GenerateFlashcards(gctx, notes)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.Generator.GenerateQuestions(gctx, notes)
		return err
	})
	if err := g.Wait(); err != nil {
		return apierrors.GenerationFailed("failed to generate study content", err)
	}

	if name == "" {
		name = s.MarkdownService.Title(notes)
	}
	if name == "" {
		name = strings.TrimSuffix(files[0].Filename, filepath.Ext(files[0].Filename))
	}

	response, err := s.persistGeneratedConcept(c, course, name, description, notes, cards, questions)
	if err != nil {
		return err
	}
	response.Truncated = extracted.Truncated
	logger.Info("generated concept",
		slog.Int("concept_id", int(response.Concept.ID)),
		slog.Int("flashcards", len(response.Flashcards)),
		slog.Int("questions", len(response.Questions)))
	return c.JSON(http.StatusCreated, response)
}

func (s *APIV1Service) extractFiles(ctx context.Context, files []*multipart.FileHeader) (*textextract.Result, error) {
	results := make([]*textextract.Result, 0, len(files))
	for _, header := range files {
		if header.Size > maxUploadSize {
			return nil, apierrors.InvalidArgument("file " + header.Filename + " is too large")
		}
		data, err := readFormFile(header)
		if err != nil {
			return nil, err
		}

		contentType := header.Header.Get(echo.HeaderContentType)
		if contentType == "" || contentType == echo.MIMEOctetStream {
			contentType = http.DetectContentType(data)
		}
		result, err := s.Extractor.ExtractText(ctx, data, contentType)
		if err != nil {
			if errors.Is(err, textextract.ErrUnsupportedType) {
				return nil, apierrors.InvalidArgument("unsupported file type for " + header.Filename)
			}
			return nil, apierrors.GenerationFailed("failed to extract text from "+header.Filename, err)
		}
		results = append(results, result)
	}

	merged := textextract.Merge(results)
	if strings.TrimSpace(merged.Text) == "" {
		return nil, apierrors.InvalidArgument("no text found in the uploaded files")
	}
	return merged, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open upload")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	if len(data) > maxUploadSize {
		return nil, apierrors.InvalidArgument("file " + header.Filename + " is too large")
	}
	return data, nil
}

// persistGeneratedConcept stores the concept and its content. A failure
// deletes the concept again, which cascades to everything stored so far.
func (s *APIV1Service) persistGeneratedConcept(c echo.Context, course *store.Course, name, description, notes string, cards []ai.GeneratedFlashcard, questions []ai.GeneratedQuestion) (*GeneratedConcept, error) {
	ctx := c.Request().Context()
	concept, err := s.createConcept(c, course, name, description)
	if err != nil {
		return nil, err
	}

	response, err := s.storeGeneratedContent(ctx, course, concept, notes, cards, questions)
	if err != nil {
		// The request context may be gone; clean up regardless.
		if deleteErr := s.Store.DeleteConcept(context.WithoutCancel(ctx), &store.DeleteConcept{ID: concept.ID}); deleteErr != nil {
			slog.Error("failed to roll back generated concept",
				slog.Int("concept_id", int(concept.ID)),
				slog.String("error", deleteErr.Error()))
		}
		return nil, err
	}
	return response, nil
}

func (s *APIV1Service) storeGeneratedContent(ctx context.Context, course *store.Course, concept *store.Concept, notes string, cards []ai.GeneratedFlashcard, questions []ai.GeneratedQuestion) (*GeneratedConcept, error) {
	note, err := s.Store.UpsertNote(ctx, &store.Note{
		ConceptID: concept.ID,
		CreatorID: concept.CreatorID,
		Name:      concept.Name,
		Content:   notes,
	})
	if err != nil {
		return nil, err
	}

	response := &GeneratedConcept{
		Concept:    convertConceptFromStore(concept),
		Note:       convertNoteFromStore(note),
		Flashcards: make([]*Flashcard, 0, len(cards)),
		Questions:  make([]*Question, 0, len(questions)),
	}
	for i, generated := range cards {
		card, err := s.createFlashcard(ctx, course, concept, int32(i), generated.Front, generated.Back)
		if err != nil {
			return nil, err
		}
		response.Flashcards = append(response.Flashcards, convertFlashcardFromStore(card))
	}
	for i, generated := range questions {
		question, err := s.Store.CreateQuestion(ctx, &store.Question{
			ConceptID:       concept.ID,
			CreatorID:       concept.CreatorID,
			Position:        int32(i),
			Question:        generated.Question,
			PossibleAnswers: generated.PossibleAnswers,
			CorrectAnswer:   int32(generated.CorrectAnswer),
			Explanation:     generated.Explanation,
		})
		if err != nil {
			return nil, err
		}
		response.Questions = append(response.Questions, convertQuestionFromStore(question))
	}
	return response, nil
}
