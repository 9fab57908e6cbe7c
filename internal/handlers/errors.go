package handlers

import (
	"fmt"
	"net/http"

	"github.com/Schorakbi/roboto-ai/internal/models"
)

const (
	DetailEmptyCommand = "Command string cannot be empty."
	DetailInvalidJSON  = "LLM returned invalid JSON."
)

// CommandError is the single error type returned by ParseCommand.
// Kind is one of the models.Error* codes.
type CommandError struct {
	Kind   string
	Detail string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *CommandError) StatusCode() int {
	if e.Kind == models.ErrorInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (e *CommandError) Response() *models.ErrorResponse {
	return &models.ErrorResponse{Detail: e.Detail, ErrorCode: e.Kind}
}

func invalidInput() *CommandError {
	return &CommandError{Kind: models.ErrorInvalidInput, Detail: DetailEmptyCommand}
}

func upstreamFailure(err error) *CommandError {
	return &CommandError{Kind: models.ErrorUpstreamCallFailed, Detail: genericDetail(err), Err: err}
}

func badUpstreamResponse(err error) *CommandError {
	return &CommandError{Kind: models.ErrorBadUpstreamResponse, Detail: DetailInvalidJSON, Err: err}
}

func schemaValidation(err error) *CommandError {
	return &CommandError{Kind: models.ErrorSchemaValidation, Detail: genericDetail(err), Err: err}
}

func genericDetail(err error) string {
	return fmt.Sprintf("An error occurred: %s", err.Error())
}
