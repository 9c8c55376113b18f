package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/veida/plugin/review"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"invalid date", fmt.Errorf("parse: %w", review.ErrInvalidDateFormat), ErrCodeInvalidArgument, http.StatusBadRequest},
		{"course not found", review.ErrCourseNotFound, ErrCodeNotFound, http.StatusNotFound},
		{"flashcard not found", review.ErrFlashcardNotFound, ErrCodeNotFound, http.StatusNotFound},
		{"write failed", fmt.Errorf("mark reviewed: %w: %w", review.ErrPersistenceWriteFailed, fmt.Errorf("disk full")), ErrCodePersistenceFailed, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, ErrCodeContextCanceled, 499},
		{"api error kept", fmt.Errorf("wrapped: %w", InvalidArgument("bad")), ErrCodeInvalidArgument, http.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Code.HTTPStatus())
		})
	}
}

func TestAPIError(t *testing.T) {
	err := Wrap(fmt.Errorf("db down"), ErrCodePersistenceFailed, "save failed").WithContext("uid", "abc")
	assert.Equal(t, "[PERSISTENCE_FAILED] save failed: db down", err.Error())
	assert.True(t, IsCode(err, ErrCodePersistenceFailed))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodePersistenceFailed))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(fmt.Errorf("plain"), ErrCodeInternal))

	body := err.Body()
	assert.Equal(t, "save failed", body.Message)
	assert.Equal(t, "abc", body.Details["uid"])
	assert.Equal(t, "[NOT_FOUND] course not found", NotFound("course").Error())
}
