package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/veida/internal/profile"
	"github.com/hrygo/veida/plugin/ai"
	"github.com/hrygo/veida/plugin/markdown"
	"github.com/hrygo/veida/plugin/review"
	"github.com/hrygo/veida/plugin/textextract"
	"github.com/hrygo/veida/server/auth"
	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/server/internal/observability"
	"github.com/hrygo/veida/store"
)

// APIV1Service serves the REST API under /api/v1.
type APIV1Service struct {
	Profile         *profile.Profile
	Store           *store.Store
	Tracker         *review.Tracker
	MarkdownService markdown.Service
	Metrics         *observability.Metrics

	// Generator and Extractor are nil when the content pipeline is disabled.
	Generator *ai.Generator
	Extractor textextract.Extractor

	// generateSemaphore limits concurrent content generations.
	generateSemaphore *semaphore.Weighted
	now               func() time.Time
}

// NewAPIV1Service wires the API over the store and tracker. The content
// pipeline is enabled when the profile configures an LLM.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, tracker *review.Tracker, metrics *observability.Metrics) *APIV1Service {
	service := &APIV1Service{
		Profile:           profile,
		Store:             store,
		Tracker:           tracker,
		MarkdownService:   markdown.NewService(markdown.WithGFM()),
		Metrics:           metrics,
		generateSemaphore: semaphore.NewWeighted(int64(max(profile.AIMaxConcurrent, 1))),
		now:               time.Now,
	}

	if profile.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(profile)
		if err := aiConfig.Validate(); err != nil {
			slog.Warn("content generation disabled", slog.String("error", err.Error()))
		} else if llm, err := ai.NewLLMService(&aiConfig.LLM); err != nil {
			slog.Warn("content generation disabled", slog.String("error", err.Error()))
		} else {
			service.Generator = ai.NewGenerator(llm)
			extractConfig := textextract.ConfigFromProfile(profile)
			if !profile.TextExtractEnabled {
				// Plain text and Markdown uploads still work without Tika.
				extractConfig.TikaServerURL = ""
			}
			service.Extractor = textextract.NewClient(extractConfig)
		}
	}

	return service
}

// RegisterRoutes registers every endpoint on g. authMiddleware guards all of them.
func (s *APIV1Service) RegisterRoutes(g *echo.Group, authMiddleware echo.MiddlewareFunc) {
	api := g.Group("", authMiddleware)

	api.GET("/system/metrics/overview", s.GetMetricsOverview)

	api.GET("/account", s.GetAccount)
	api.PUT("/account/push-token", s.SetPushToken)

	api.GET("/courses", s.ListCourses)
	api.POST("/courses", s.CreateCourse)
	api.GET("/courses/:course", s.GetCourse)
	api.PATCH("/courses/:course", s.UpdateCourse)
	api.DELETE("/courses/:course", s.DeleteCourse)
	api.GET("/courses/:course/concepts", s.ListConcepts)
	api.POST("/courses/:course/concepts", s.CreateConcept)
	api.POST("/courses/:course/concepts/generate", s.GenerateConcept)
	api.DELETE("/courses/:course/review-dates/today", s.RemoveCourseReviewDatesToday)

	api.GET("/concepts/:concept", s.GetConcept)
	api.PATCH("/concepts/:concept", s.UpdateConcept)
	api.DELETE("/concepts/:concept", s.DeleteConcept)
	api.GET("/concepts/:concept/notes", s.ListNotes)
	api.GET("/concepts/:concept/notes/:name", s.GetNote)
	api.PUT("/concepts/:concept/notes/:name", s.UpsertNote)
	api.DELETE("/concepts/:concept/notes/:name", s.DeleteNote)
	api.GET("/concepts/:concept/questions", s.ListQuestions)
	api.POST("/concepts/:concept/questions", s.CreateQuestion)
	api.DELETE("/questions/:question", s.DeleteQuestion)
	api.GET("/concepts/:concept/flashcards", s.ListFlashcards)
	api.POST("/concepts/:concept/flashcards", s.CreateFlashcard)

	api.GET("/flashcards/due", s.ListDueFlashcards)
	api.GET("/flashcards/:uid", s.GetFlashcard)
	api.PATCH("/flashcards/:uid", s.UpdateFlashcard)
	api.DELETE("/flashcards/:uid", s.DeleteFlashcard)
	api.POST("/flashcards/:uid/review", s.ReviewFlashcard)
	api.POST("/flashcards/:uid/view", s.RecordFlashcardView)
	api.POST("/flashcards/:uid/seen", s.MarkFlashcardSeen)
	api.GET("/flashcards/:uid/next-study-date", s.GetNextStudyDate)
	api.POST("/flashcards/:uid/next-study-date", s.UpdateNextStudyDate)
	api.DELETE("/flashcards/:uid/review-dates/today", s.RemoveFlashcardReviewDateToday)
	api.POST("/flashcards/:uid/reset-schedule", s.ResetFlashcardSchedule)

	api.GET("/reviews/stats", s.GetReviewStats)
}

// ErrorHandler writes errors as the JSON envelope of server/internal/errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *apierrors.APIError
	if httpErr, ok := err.(*echo.HTTPError); ok {
		apiErr = fromHTTPError(httpErr)
	} else {
		apiErr = apierrors.FromError(err)
	}

	status := apiErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request failed",
			slog.String(observability.LogFieldErrorCode, string(apiErr.Code)),
			slog.String("error", err.Error()))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, apiErr.Body())
	}
	if err != nil {
		slog.Error("failed to write error response", slog.String("error", err.Error()))
	}
}

func fromHTTPError(httpErr *echo.HTTPError) *apierrors.APIError {
	msg := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok {
		msg = m
	}
	switch httpErr.Code {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return &apierrors.APIError{Code: apierrors.ErrCodeNotFound, Message: msg}
	case http.StatusUnauthorized:
		return apierrors.Unauthorized(msg)
	case http.StatusTooManyRequests:
		return apierrors.RateLimitExceeded(msg)
	case http.StatusRequestEntityTooLarge:
		return apierrors.InvalidArgument("request body too large")
	}
	if httpErr.Code < http.StatusInternalServerError {
		return apierrors.InvalidArgument(msg)
	}
	return apierrors.Wrap(httpErr, apierrors.ErrCodeInternal, "internal error")
}

// currentAccount returns the caller. Routes are registered behind the auth
// middleware so a missing account is a wiring error.
func currentAccount(c echo.Context) (*store.Account, error) {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return nil, apierrors.Unauthorized("authentication required")
	}
	return account, nil
}

func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, apierrors.InvalidArgument("invalid " + name + " id")
	}
	return int32(id), nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	return nil
}

// loadCourse returns the course in the path if the caller owns it.
func (s *APIV1Service) loadCourse(c echo.Context, account *store.Account) (*store.Course, error) {
	id, err := parseIDParam(c, "course")
	if err != nil {
		return nil, err
	}
	course, err := s.Store.GetCourse(c.Request().Context(), &store.FindCourse{ID: &id})
	if err != nil {
		return nil, err
	}
	if course == nil || course.CreatorID != account.ID {
		return nil, apierrors.NotFound("course")
	}
	return course, nil
}

// loadConcept returns the concept in the path if the caller owns it.
func (s *APIV1Service) loadConcept(c echo.Context, account *store.Account) (*store.Concept, error) {
	id, err := parseIDParam(c, "concept")
	if err != nil {
		return nil, err
	}
	concept, err := s.Store.GetConcept(c.Request().Context(), &store.FindConcept{ID: &id, CreatorID: &account.ID})
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, apierrors.NotFound("concept")
	}
	return concept, nil
}

// loadFlashcard returns the flashcard in the path if the caller owns it.
func (s *APIV1Service) loadFlashcard(c echo.Context, account *store.Account) (*store.Flashcard, error) {
	uid := c.Param("uid")
	card, err := s.Store.GetFlashcard(c.Request().Context(), &store.FindFlashcard{UID: &uid, CreatorID: &account.ID})
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, apierrors.FromError(review.ErrFlashcardNotFound)
	}
	return card, nil
}
