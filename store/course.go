package store

import (
	"context"
	"strconv"
)

// Course is a subject a user studies for, anchored on an exam date.
type Course struct {
	ID        int32
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64

	Name        string
	Description string
	// ExamDate is "2006-01-02" or "2006-01-02 15:04:05".
	ExamDate string
	// PushNotifications opts the course into daily due-card reminders.
	PushNotifications bool
}

type FindCourse struct {
	ID                *int32
	CreatorID         *int32
	Name              *string
	PushNotifications *bool

	// Pagination
	Limit  *int
	Offset *int
}

type UpdateCourse struct {
	ID                int32
	UpdatedTs         *int64
	Name              *string
	Description       *string
	ExamDate          *string
	PushNotifications *bool
}

type DeleteCourse struct {
	ID int32
}

func (s *Store) CreateCourse(ctx context.Context, create *Course) (*Course, error) {
	course, err := s.driver.CreateCourse(ctx, create)
	if err != nil {
		return nil, err
	}
	s.courseCache.Set(ctx, courseCacheKey(course.ID), course)
	return course, nil
}

func (s *Store) ListCourses(ctx context.Context, find *FindCourse) ([]*Course, error) {
	list, err := s.driver.ListCourses(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, course := range list {
		s.courseCache.Set(ctx, courseCacheKey(course.ID), course)
	}
	return list, nil
}

// GetCourse returns the first course matching find, or nil when none does.
// Lookups by id alone are served from cache.
func (s *Store) GetCourse(ctx context.Context, find *FindCourse) (*Course, error) {
	if find.ID != nil && find.CreatorID == nil && find.Name == nil {
		if cached, ok := s.courseCache.Get(ctx, courseCacheKey(*find.ID)); ok {
			if course, ok := cached.(*Course); ok {
				return course, nil
			}
		}
	}

	list, err := s.ListCourses(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateCourse(ctx context.Context, update *UpdateCourse) (*Course, error) {
	course, err := s.driver.UpdateCourse(ctx, update)
	if err != nil {
		return nil, err
	}
	s.courseCache.Set(ctx, courseCacheKey(course.ID), course)
	return course, nil
}

// DeleteCourse removes the course together with its concepts, cards, questions and notes.
func (s *Store) DeleteCourse(ctx context.Context, delete *DeleteCourse) error {
	if err := s.driver.DeleteCourse(ctx, delete); err != nil {
		return err
	}
	s.courseCache.Delete(ctx, courseCacheKey(delete.ID))
	return nil
}

func courseCacheKey(id int32) string {
	return strconv.FormatInt(int64(id), 10)
}
