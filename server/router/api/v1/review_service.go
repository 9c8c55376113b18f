package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/store"
)

// maxDueFlashcards caps a single due-today response.
const maxDueFlashcards = 500

type DueFlashcardsResponse struct {
	Date       string       `json:"date"`
	Flashcards []*Flashcard `json:"flashcards"`
	// HasMore is set when the limit cut the list short.
	HasMore bool `json:"has_more"`
}

type ReviewFlashcardResponse struct {
	Flashcard    *Flashcard `json:"flashcard"`
	ReviewedDate string     `json:"reviewed_date"`
}

type NextStudyDateResponse struct {
	NextStudyDate string `json:"next_study_date"`
}

type RemoveReviewDatesResponse struct {
	Date    string `json:"date"`
	Removed int64  `json:"removed"`
}

// ListDueFlashcards lists the caller's cards due today, optionally for one
// course (?course=ID), at most ?limit cards.
func (s *APIV1Service) ListDueFlashcards(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	limit := maxDueFlashcards
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return apierrors.InvalidArgument("invalid limit")
		}
		limit = min(n, maxDueFlashcards)
	}

	var courseID *int32
	if v := c.QueryParam("course"); v != "" {
		id, err := strconv.ParseInt(v, 10, 32)
		if err != nil || id <= 0 {
			return apierrors.InvalidArgument("invalid course id")
		}
		id32 := int32(id)
		course, err := s.Store.GetCourse(ctx, &store.FindCourse{ID: &id32})
		if err != nil {
			return err
		}
		if course == nil || course.CreatorID != account.ID {
			return apierrors.NotFound("course")
		}
		courseID = &id32
	}

	response := &DueFlashcardsResponse{
		Date:       s.Tracker.Today(),
		Flashcards: []*Flashcard{},
	}
	for card, err := range s.Tracker.DueToday(ctx, account.ID, courseID) {
		if err != nil {
			return err
		}
		if len(response.Flashcards) == limit {
			response.HasMore = true
			break
		}
		response.Flashcards = append(response.Flashcards, convertFlashcardFromStore(card))
	}
	return c.JSON(http.StatusOK, response)
}

// ReviewFlashcard records one completed study of the card.
func (s *APIV1Service) ReviewFlashcard(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	review, err := s.Tracker.MarkReviewed(c.Request().Context(), card)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &ReviewFlashcardResponse{
		Flashcard:    convertFlashcardFromStore(card),
		ReviewedDate: review.ReviewedDate,
	})
}

func (s *APIV1Service) RecordFlashcardView(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if err := s.Tracker.RecordView(c.Request().Context(), card); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

func (s *APIV1Service) MarkFlashcardSeen(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if err := s.Tracker.MarkLastSeen(c.Request().Context(), card); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

// GetNextStudyDate previews the next study date without storing it.
func (s *APIV1Service) GetNextStudyDate(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	next, err := s.Tracker.ComputeNextStudyDate(c.Request().Context(), card)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &NextStudyDateResponse{NextStudyDate: next})
}

func (s *APIV1Service) UpdateNextStudyDate(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if _, err := s.Tracker.UpdateNextStudyDate(c.Request().Context(), card); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

func (s *APIV1Service) RemoveFlashcardReviewDateToday(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if err := s.Tracker.RemoveTodaysReviewDate(c.Request().Context(), card); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

func (s *APIV1Service) RemoveCourseReviewDatesToday(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	removed, err := s.Tracker.RemoveTodaysReviewDates(c.Request().Context(), account.ID, course.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &RemoveReviewDatesResponse{Date: s.Tracker.Today(), Removed: removed})
}

func (s *APIV1Service) ResetFlashcardSchedule(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if err := s.Tracker.ResetSchedule(c.Request().Context(), card); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

func (s *APIV1Service) GetReviewStats(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	stats, err := s.Tracker.Stats(c.Request().Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
