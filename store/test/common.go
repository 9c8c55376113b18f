package test

import (
	"context"
	"fmt"

	"github.com/hrygo/veida/store"
)

func createTestingAccount(ctx context.Context, ts *store.Store, subject string) (*store.Account, error) {
	return ts.UpsertAccount(ctx, &store.Account{
		Subject: subject,
		Email:   subject + "@example.com",
	})
}

// createTestingCourse creates an account, a course and one concept.
func createTestingCourse(ctx context.Context, ts *store.Store, subject, examDate string) (*store.Account, *store.Course, *store.Concept, error) {
	account, err := createTestingAccount(ctx, ts, subject)
	if err != nil {
		return nil, nil, nil, err
	}
	course, err := ts.CreateCourse(ctx, &store.Course{
		CreatorID: account.ID,
		Name:      "Course of " + subject,
		ExamDate:  examDate,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	concept, err := ts.CreateConcept(ctx, &store.Concept{
		CourseID:  course.ID,
		CreatorID: account.ID,
		Name:      "Concept of " + subject,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return account, course, concept, nil
}

func createTestingFlashcard(ctx context.Context, ts *store.Store, concept *store.Concept, position int32, dates ...string) (*store.Flashcard, error) {
	return ts.CreateFlashcard(ctx, &store.Flashcard{
		CourseID:    concept.CourseID,
		ConceptID:   concept.ID,
		CreatorID:   concept.CreatorID,
		Position:    position,
		Front:       fmt.Sprintf("front %d", position),
		Back:        fmt.Sprintf("back %d", position),
		ReviewDates: dates,
	})
}
