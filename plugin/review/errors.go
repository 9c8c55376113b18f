package review

import "errors"

var (
	// ErrInvalidDateFormat is returned when an exam or start date matches neither
	// "2006-01-02 15:04:05" nor "2006-01-02".
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrCourseNotFound is returned when the course owning a card cannot be resolved.
	ErrCourseNotFound = errors.New("course not found")

	// ErrFlashcardNotFound is returned when a card lookup matches nothing.
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// ErrPersistenceWriteFailed wraps every store write failure. The cause is
	// kept in the chain and the write is not retried.
	ErrPersistenceWriteFailed = errors.New("persistence write failed")

	// ErrUnknownStrategy is returned by ParseStrategy for unsupported names.
	ErrUnknownStrategy = errors.New("unknown review strategy")
)
