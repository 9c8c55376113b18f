package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)

	// Account model related methods.
	UpsertAccount(ctx context.Context, upsert *Account) (*Account, error)
	ListAccounts(ctx context.Context, find *FindAccount) ([]*Account, error)
	UpdateAccount(ctx context.Context, update *UpdateAccount) (*Account, error)

	// Course model related methods.
	CreateCourse(ctx context.Context, create *Course) (*Course, error)
	ListCourses(ctx context.Context, find *FindCourse) ([]*Course, error)
	UpdateCourse(ctx context.Context, update *UpdateCourse) (*Course, error)
	DeleteCourse(ctx context.Context, delete *DeleteCourse) error

	// Concept model related methods.
	CreateConcept(ctx context.Context, create *Concept) (*Concept, error)
	ListConcepts(ctx context.Context, find *FindConcept) ([]*Concept, error)
	UpdateConcept(ctx context.Context, update *UpdateConcept) (*Concept, error)
	DeleteConcept(ctx context.Context, delete *DeleteConcept) error

	// Note model related methods.
	UpsertNote(ctx context.Context, upsert *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// Question model related methods.
	CreateQuestion(ctx context.Context, create *Question) (*Question, error)
	ListQuestions(ctx context.Context, find *FindQuestion) ([]*Question, error)
	DeleteQuestion(ctx context.Context, delete *DeleteQuestion) error

	// Flashcard model related methods.
	// CreateFlashcard stores the card and its review dates in one transaction.
	CreateFlashcard(ctx context.Context, create *Flashcard) (*Flashcard, error)
	ListFlashcards(ctx context.Context, find *FindFlashcard) ([]*Flashcard, error)
	UpdateFlashcard(ctx context.Context, update *UpdateFlashcard) error
	DeleteFlashcard(ctx context.Context, delete *DeleteFlashcard) error

	// IncrementFlashcardTimesSeen atomically adds one to times_seen and returns the new value.
	IncrementFlashcardTimesSeen(ctx context.Context, id int32) (int32, error)
	// DeleteFlashcardReviewDates pulls a review date from every matching card
	// and returns the number of removed rows.
	DeleteFlashcardReviewDates(ctx context.Context, delete *DeleteFlashcardReviewDate) (int64, error)
	// ReplaceFlashcardReviewDates swaps the whole schedule of a card.
	ReplaceFlashcardReviewDates(ctx context.Context, flashcardID int32, dates []string) error

	// FlashcardReview model related methods.
	// RecordFlashcardReview applies one study event in a single transaction.
	RecordFlashcardReview(ctx context.Context, record *RecordFlashcardReview) (*FlashcardReview, error)
	ListFlashcardReviews(ctx context.Context, find *FindFlashcardReview) ([]*FlashcardReview, error)
}
