package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/veida/plugin/review"
	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/store"
)

// Course is the API representation of a course.
type Course struct {
	ID                int32  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	ExamDate          string `json:"exam_date"`
	PushNotifications bool   `json:"push_notifications"`
	CreatedTs         int64  `json:"created_ts"`
	UpdatedTs         int64  `json:"updated_ts"`
}

// Concept is the API representation of a concept.
type Concept struct {
	ID          int32  `json:"id"`
	CourseID    int32  `json:"course_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedTs   int64  `json:"created_ts"`
	UpdatedTs   int64  `json:"updated_ts"`
}

type CreateCourseRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	ExamDate          string `json:"exam_date"`
	PushNotifications bool   `json:"push_notifications"`
}

type UpdateCourseRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	ExamDate          *string `json:"exam_date"`
	PushNotifications *bool   `json:"push_notifications"`
}

type CreateConceptRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateConceptRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *APIV1Service) ListCourses(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	courses, err := s.Store.ListCourses(c.Request().Context(), &store.FindCourse{CreatorID: &account.ID})
	if err != nil {
		return err
	}
	response := make([]*Course, 0, len(courses))
	for _, course := range courses {
		response = append(response, convertCourseFromStore(course))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	request := &CreateCourseRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	request.Name = strings.TrimSpace(request.Name)
	if request.Name == "" {
		return apierrors.InvalidArgument("course name is required")
	}
	if err := s.validateExamDate(request.ExamDate); err != nil {
		return err
	}
	existing, err := s.Store.GetCourse(ctx, &store.FindCourse{CreatorID: &account.ID, Name: &request.Name})
	if err != nil {
		return err
	}
	if existing != nil {
		return apierrors.AlreadyExists("a course with this name already exists")
	}

	course, err := s.Store.CreateCourse(ctx, &store.Course{
		CreatorID:         account.ID,
		Name:              request.Name,
		Description:       request.Description,
		ExamDate:          strings.TrimSpace(request.ExamDate),
		PushNotifications: request.PushNotifications,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertCourseFromStore(course))
}

func (s *APIV1Service) GetCourse(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertCourseFromStore(course))
}

// UpdateCourse edits course fields. Existing review dates are kept even when
// the exam date moves; a schedule is only recomputed by an explicit reset.
func (s *APIV1Service) UpdateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	request := &UpdateCourseRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	now := s.now().Unix()
	update := &store.UpdateCourse{
		ID:                course.ID,
		UpdatedTs:         &now,
		Description:       request.Description,
		PushNotifications: request.PushNotifications,
	}
	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return apierrors.InvalidArgument("course name is required")
		}
		if name != course.Name {
			existing, err := s.Store.GetCourse(ctx, &store.FindCourse{CreatorID: &account.ID, Name: &name})
			if err != nil {
				return err
			}
			if existing != nil {
				return apierrors.AlreadyExists("a course with this name already exists")
			}
		}
		update.Name = &name
	}
	if request.ExamDate != nil {
		examDate := strings.TrimSpace(*request.ExamDate)
		if err := s.validateExamDate(examDate); err != nil {
			return err
		}
		update.ExamDate = &examDate
	}

	updated, err := s.Store.UpdateCourse(ctx, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertCourseFromStore(updated))
}

func (s *APIV1Service) DeleteCourse(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteCourse(c.Request().Context(), &store.DeleteCourse{ID: course.ID}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) ListConcepts(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	concepts, err := s.Store.ListConcepts(c.Request().Context(), &store.FindConcept{CourseID: &course.ID})
	if err != nil {
		return err
	}
	response := make([]*Concept, 0, len(concepts))
	for _, concept := range concepts {
		response = append(response, convertConceptFromStore(concept))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) CreateConcept(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(c, account)
	if err != nil {
		return err
	}
	request := &CreateConceptRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	concept, err := s.createConcept(c, course, request.Name, request.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertConceptFromStore(concept))
}

func (s *APIV1Service) GetConcept(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertConceptFromStore(concept))
}

func (s *APIV1Service) UpdateConcept(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	request := &UpdateConceptRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	now := s.now().Unix()
	update := &store.UpdateConcept{
		ID:          concept.ID,
		UpdatedTs:   &now,
		Description: request.Description,
	}
	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return apierrors.InvalidArgument("concept name is required")
		}
		if name != concept.Name {
			existing, err := s.Store.GetConcept(ctx, &store.FindConcept{CourseID: &concept.CourseID, Name: &name})
			if err != nil {
				return err
			}
			if existing != nil {
				return apierrors.AlreadyExists("a concept with this name already exists in the course")
			}
		}
		update.Name = &name
	}

	updated, err := s.Store.UpdateConcept(ctx, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertConceptFromStore(updated))
}

func (s *APIV1Service) DeleteConcept(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	concept, err := s.loadConcept(c, account)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteConcept(c.Request().Context(), &store.DeleteConcept{ID: concept.ID}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) createConcept(c echo.Context, course *store.Course, name, description string) (*store.Concept, error) {
	ctx := c.Request().Context()
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierrors.InvalidArgument("concept name is required")
	}
	existing, err := s.Store.GetConcept(ctx, &store.FindConcept{CourseID: &course.ID, Name: &name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierrors.AlreadyExists("a concept with this name already exists in the course")
	}
	return s.Store.CreateConcept(ctx, &store.Concept{
		CourseID:    course.ID,
		CreatorID:   course.CreatorID,
		Name:        name,
		Description: description,
	})
}

func (s *APIV1Service) validateExamDate(examDate string) error {
	if strings.TrimSpace(examDate) == "" {
		return apierrors.InvalidArgument("exam date is required")
	}
	if _, err := review.ParseExamDateIn(strings.TrimSpace(examDate), s.Tracker.Location()); err != nil {
		return apierrors.FromError(err)
	}
	return nil
}

func convertCourseFromStore(course *store.Course) *Course {
	return &Course{
		ID:                course.ID,
		Name:              course.Name,
		Description:       course.Description,
		ExamDate:          course.ExamDate,
		PushNotifications: course.PushNotifications,
		CreatedTs:         course.CreatedTs,
		UpdatedTs:         course.UpdatedTs,
	}
}

func convertConceptFromStore(concept *store.Concept) *Concept {
	return &Concept{
		ID:          concept.ID,
		CourseID:    concept.CourseID,
		Name:        concept.Name,
		Description: concept.Description,
		CreatedTs:   concept.CreatedTs,
		UpdatedTs:   concept.UpdatedTs,
	}
}
