package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/store"
)

// Question is the API representation of a multiple-choice question.
type Question struct {
	ID              int32    `json:"id"`
	ConceptID       int32    `json:"concept_id"`
	Position        int32    `json:"position"`
	Question        string   `json:"question"`
	PossibleAnswers []string `json:"possible_answers"`
	CorrectAnswer   int32    `json:"correct_answer"`
	Explanation     string   `json:"explanation"`
}

type CreateQuestionRequest struct {
	Question        string   `json:"question"`
	PossibleAnswers []string `json:"possible_answers"`
	CorrectAnswer   int32    `json:"correct_answer"`
	Explanation     string   `json:"explanation"`
}

func (s *APIV1Service) ListQuestions(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	questions, err := s.Store.ListQuestions(c.Request().Context(), &store.FindQuestion{ConceptID: &concept.ID})
	if err != nil {
		return err
	}
	response := make([]*Question, 0, len(questions))
	for _, question := range questions {
		response = append(response, convertQuestionFromStore(question))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) CreateQuestion(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	request := &CreateQuestionRequest{}
	if err := bind(c, request); err != nil {
		return err
	}
	if strings.TrimSpace(request.Question) == "" {
		return apierrors.InvalidArgument("question is required")
	}
	if len(request.PossibleAnswers) < 2 {
		return apierrors.InvalidArgument("at least two possible answers are required")
	}
	if request.CorrectAnswer < 0 || int(request.CorrectAnswer) >= len(request.PossibleAnswers) {
		return apierrors.InvalidArgument("correct answer must index possible answers")
	}

	existing, err := s.Store.ListQuestions(ctx, &store.FindQuestion{ConceptID: &concept.ID})
	if err != nil {
		return err
	}
	question, err := s.Store.CreateQuestion(ctx, &store.Question{
		ConceptID:       concept.ID,
		CreatorID:       account.ID,
		Position:        int32(len(existing)),
		Question:        request.Question,
		PossibleAnswers: request.PossibleAnswers,
		CorrectAnswer:   request.CorrectAnswer,
		Explanation:     request.Explanation,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertQuestionFromStore(question))
}

func (s *APIV1Service) DeleteQuestion(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "question")
	if err != nil {
		return err
	}
	questions, err := s.Store.ListQuestions(ctx, &store.FindQuestion{ID: &id, CreatorID: &account.ID})
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return apierrors.NotFound("question")
	}
	if err := s.Store.DeleteQuestion(ctx, &store.DeleteQuestion{ID: id}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func convertQuestionFromStore(question *store.Question) *Question {
	return &Question{
		ID:              question.ID,
		ConceptID:       question.ConceptID,
		Position:        question.Position,
		Question:        question.Question,
		PossibleAnswers: question.PossibleAnswers,
		CorrectAnswer:   question.CorrectAnswer,
		Explanation:     question.Explanation,
	}
}
