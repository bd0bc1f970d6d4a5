// Package errors defines the pipeline's error taxonomy. Every failure that
// crosses a component boundary is wrapped in a PipelineError carrying the
// failing stage, so handlers can map it to an HTTP status and clients can
// tell which part of the pipeline broke.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_FAILED"
	CodeExtraction       Code = "EXTRACTION_FAILED"
	CodeParsing          Code = "PARSING_FAILED"
	CodeEmbedding        Code = "EMBEDDING_FAILED"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeRateLimit        Code = "RATE_LIMITED"
)

type Stage string

const (
	StageValidation     Stage = "validation"
	StageExtraction     Stage = "extraction"
	StageParsing        Stage = "parsing"
	StageEmbedding      Stage = "embedding"
	StageStorage        Stage = "storage"
	StageRecommendation Stage = "recommendation"
)

// PipelineError is a structured application error.
type PipelineError struct {
	Code      Code   `json:"code"`
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Err       error  `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Code, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewValidation(message string) *PipelineError {
	return &PipelineError{Code: CodeValidation, Stage: StageValidation, Message: message}
}

func NewExtraction(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeExtraction, Stage: StageExtraction, Message: message, Err: err}
}

func NewParsing(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeParsing, Stage: StageParsing, Message: message, Err: err}
}

func NewEmbedding(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeEmbedding, Stage: StageEmbedding, Message: message, Err: err}
}

func NewStoreUnavailable(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeStoreUnavailable, Stage: StageStorage, Message: message, Err: err, Retryable: true}
}

func NewRateLimit(stage Stage, err error) *PipelineError {
	return &PipelineError{Code: CodeRateLimit, Stage: stage, Message: "provider rate limit exceeded", Err: err, Retryable: true}
}

// As extracts a PipelineError from an error chain.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func HasCode(err error, code Code) bool {
	if pe, ok := As(err); ok {
		return pe.Code == code
	}
	return false
}

// HTTPStatus maps an error to the status the API should return.
func HTTPStatus(err error) int {
	pe, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch pe.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRateLimit reports whether an upstream provider error looks like a rate
// limit or quota failure. Providers do not expose a stable typed error for
// this, so the check is by message, same as the retry policy upstream
// services apply.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if HasCode(err, CodeRateLimit) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource exhausted")
}
