package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/store"
)

// Flashcard is the API representation of a flashcard.
type Flashcard struct {
	UID           string   `json:"uid"`
	CourseID      int32    `json:"course_id"`
	ConceptID     int32    `json:"concept_id"`
	Position      int32    `json:"position"`
	Front         string   `json:"front"`
	Back          string   `json:"back"`
	TimesSeen     int32    `json:"times_seen"`
	LastSeenTs    *int64   `json:"last_seen_ts"`
	NextStudyDate *string  `json:"next_study_date"`
	ReviewDates   []string `json:"review_dates"`
	CreatedTs     int64    `json:"created_ts"`
}

type CreateFlashcardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type UpdateFlashcardRequest struct {
	Front    *string `json:"front"`
	Back     *string `json:"back"`
	Position *int32  `json:"position"`
}

func (s *APIV1Service) ListFlashcards(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	cards, err := s.Store.ListFlashcards(c.Request().Context(), &store.FindFlashcard{ConceptID: &concept.ID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardsFromStore(cards))
}

// CreateFlashcard adds a card to a concept. Its review dates are computed
// once, from the creation time and the course exam date.
func (s *APIV1Service) CreateFlashcard(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	request := &CreateFlashcardRequest{}
	if err := bind(c, request); err != nil {
		return err
	}
	if strings.TrimSpace(request.Front) == "" || strings.TrimSpace(request.Back) == "" {
		return apierrors.InvalidArgument("front and back are required")
	}

	course, err := s.Store.GetCourse(ctx, &store.FindCourse{ID: &concept.CourseID})
	if err != nil {
		return err
	}
	if course == nil {
		return apierrors.NotFound("course")
	}
	existing, err := s.Store.ListFlashcards(ctx, &store.FindFlashcard{ConceptID: &concept.ID})
	if err != nil {
		return err
	}

	card, err := s.createFlashcard(ctx, course, concept, int32(len(existing)), request.Front, request.Back)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertFlashcardFromStore(card))
}

func (s *APIV1Service) GetFlashcard(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(card))
}

// UpdateFlashcard edits the card content. Study progress is untouched.
func (s *APIV1Service) UpdateFlashcard(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	request := &UpdateFlashcardRequest{}
	if err := bind(c, request); err != nil {
		return err
	}
	if (request.Front != nil && strings.TrimSpace(*request.Front) == "") ||
		(request.Back != nil && strings.TrimSpace(*request.Back) == "") {
		return apierrors.InvalidArgument("front and back cannot be empty")
	}

	now := s.now().Unix()
	if err := s.Store.UpdateFlashcard(ctx, &store.UpdateFlashcard{
		ID:        card.ID,
		UpdatedTs: &now,
		Front:     request.Front,
		Back:      request.Back,
		Position:  request.Position,
	}); err != nil {
		return err
	}

	updated, err := s.Store.GetFlashcard(ctx, &store.FindFlashcard{ID: &card.ID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertFlashcardFromStore(updated))
}

func (s *APIV1Service) DeleteFlashcard(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	card, err := s.loadFlashcard(c, account)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteFlashcard(c.Request().Context(), &store.DeleteFlashcard{ID: card.ID}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// createFlashcard schedules and stores one card. A course with a malformed
// exam date fails here instead of storing a wrong schedule.
func (s *APIV1Service) createFlashcard(ctx context.Context, course *store.Course, concept *store.Concept, position int32, front, back string) (*store.Flashcard, error) {
	now := s.now()
	dates, err := s.Tracker.ScheduleCard(now, course.ExamDate)
	if err != nil {
		return nil, err
	}
	return s.Store.CreateFlashcard(ctx, &store.Flashcard{
		CourseID:    course.ID,
		ConceptID:   concept.ID,
		CreatorID:   concept.CreatorID,
		CreatedTs:   now.Unix(),
		Position:    position,
		Front:       strings.TrimSpace(front),
		Back:        strings.TrimSpace(back),
		ReviewDates: dates,
	})
}

func convertFlashcardFromStore(card *store.Flashcard) *Flashcard {
	reviewDates := card.ReviewDates
	if reviewDates == nil {
		reviewDates = []string{}
	}
	return &Flashcard{
		UID:           card.UID,
		CourseID:      card.CourseID,
		ConceptID:     card.ConceptID,
		Position:      card.Position,
		Front:         card.Front,
		Back:          card.Back,
		TimesSeen:     card.TimesSeen,
		LastSeenTs:    card.LastSeenTs,
		NextStudyDate: card.NextStudyDate,
		ReviewDates:   reviewDates,
		CreatedTs:     card.CreatedTs,
	}
}

func convertFlashcardsFromStore(cards []*store.Flashcard) []*Flashcard {
	response := make([]*Flashcard, 0, len(cards))
	for _, card := range cards {
		response = append(response, convertFlashcardFromStore(card))
	}
	return response
}
