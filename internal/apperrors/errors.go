// Package apperrors holds the error taxonomy shared by every assessment component.
// Call sites wrap these sentinels with context; callers match them with errors.Is.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientCandidates = errors.New("insufficient candidate questions")
	ErrInvalidState           = errors.New("invalid session state transition")
	ErrAuthorization          = errors.New("session does not belong to user")
	ErrDuplicateSubmission    = errors.New("question already answered in this session")
	ErrOutOfSequence          = errors.New("question is not the current question")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrSessionNotActive       = errors.New("session is not active")
	ErrSessionNotFound        = errors.New("session not found")
	ErrVersionConflict        = errors.New("session was modified concurrently")
)

// Code is a machine-readable error code returned to API clients.
type Code string

const (
	CodeUnknown                Code = "UNKNOWN"
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeInsufficientCandidates Code = "INSUFFICIENT_CANDIDATES"
	CodeInvalidState           Code = "INVALID_STATE"
	CodeAuthorization          Code = "AUTHORIZATION_ERROR"
	CodeDuplicateSubmission    Code = "DUPLICATE_SUBMISSION"
	CodeOutOfSequence          Code = "OUT_OF_SEQUENCE"
	CodeQuestionNotFound       Code = "QUESTION_NOT_FOUND"
	CodeSessionNotActive       Code = "SESSION_NOT_ACTIVE"
	CodeSessionNotFound        Code = "SESSION_NOT_FOUND"
	CodeVersionConflict        Code = "VERSION_CONFLICT"
)

type mapping struct {
	err    error
	code   Code
	status int
}

var mappings = []mapping{
	{ErrValidation, CodeValidation, http.StatusBadRequest},
	{ErrInsufficientCandidates, CodeInsufficientCandidates, http.StatusUnprocessableEntity},
	{ErrInvalidState, CodeInvalidState, http.StatusConflict},
	{ErrAuthorization, CodeAuthorization, http.StatusForbidden},
	{ErrDuplicateSubmission, CodeDuplicateSubmission, http.StatusConflict},
	{ErrOutOfSequence, CodeOutOfSequence, http.StatusConflict},
	{ErrQuestionNotFound, CodeQuestionNotFound, http.StatusNotFound},
	{ErrSessionNotActive, CodeSessionNotActive, http.StatusConflict},
	{ErrSessionNotFound, CodeSessionNotFound, http.StatusNotFound},
	{ErrVersionConflict, CodeVersionConflict, http.StatusConflict},
}

// Classify returns the code and HTTP status for err.
// Unrecognized errors map to CodeUnknown and 500.
func Classify(err error) (Code, int) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.code, m.status
		}
	}
	return CodeUnknown, http.StatusInternalServerError
}
