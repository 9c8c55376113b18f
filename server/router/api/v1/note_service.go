package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/store"
)

// Note is the API representation of a note. HTML is only filled when asked
// for with ?format=html.
type Note struct {
	ID        int32  `json:"id"`
	ConceptID int32  `json:"concept_id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	HTML      string `json:"html,omitempty"`
	UpdatedTs int64  `json:"updated_ts"`
}

type UpsertNoteRequest struct {
	Content string `json:"content"`
}

func (s *APIV1Service) ListNotes(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	notes, err := s.Store.ListNotes(c.Request().Context(), &store.FindNote{ConceptID: &concept.ID})
	if err != nil {
		return err
	}
	response := make([]*Note, 0, len(notes))
	for _, note := range notes {
		response = append(response, convertNoteFromStore(note))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetNote(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	name := c.Param("name")
	note, err := s.Store.GetNote(c.Request().Context(), &store.FindNote{ConceptID: &concept.ID, Name: &name})
	if err != nil {
		return err
	}
	if note == nil {
		return apierrors.NotFound("note")
	}

	response := convertNoteFromStore(note)
	if c.QueryParam("format") == "html" {
		html, err := s.MarkdownService.RenderHTML(note.Content)
		if err != nil {
			return err
		}
		response.HTML = html
	}
	return c.JSON(http.StatusOK, response)
}

// UpsertNote creates the named note or replaces its content.
func (s *APIV1Service) UpsertNote(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return apierrors.InvalidArgument("note name is required")
	}
	request := &UpsertNoteRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	note, err := s.Store.UpsertNote(c.Request().Context(), &store.Note{
		ConceptID: concept.ID,
		CreatorID: account.ID,
		Name:      name,
		Content:   request.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(note))
}

func (s *APIV1Service) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	name := c.Param("name")
	note, err := s.Store.GetNote(ctx, &store.FindNote{ConceptID: &concept.ID, Name: &name})
	if err != nil {
		return err
	}
	if note == nil {
		return apierrors.NotFound("note")
	}
	if err := s.Store.DeleteNote(ctx, &store.DeleteNote{ID: note.ID}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func convertNoteFromStore(note *store.Note) *Note {
	return &Note{
		ID:        note.ID,
		ConceptID: note.ConceptID,
		Name:      note.Name,
		Content:   note.Content,
		UpdatedTs: note.UpdatedTs,
	}
}
