package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"grocery/internal/domain/domainerr"
)

type HTTPError struct {
	Status  int
	Message string
	// 元のエラー（errors.Is で辿れる）
	Err error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ドメインのエラーをステータスに振り分ける
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	// Tx のやり直しでも駄目だったものが最優先
	if errors.Is(err, domainerr.ErrTransient) {
		return &HTTPError{Status: http.StatusServiceUnavailable, Message: "service unavailable", Err: err}
	}
	if he, ok := AsHTTPError(err); ok {
		return he
	}

	switch {
	case errors.Is(err, domainerr.ErrValidation):
		return &HTTPError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, domainerr.ErrNotFound):
		return &HTTPError{Status: http.StatusNotFound, Message: "not found", Err: err}
	case errors.Is(err, domainerr.ErrAlreadyAssigned):
		return &HTTPError{Status: http.StatusConflict, Message: "already assigned", Err: err}
	case errors.Is(err, domainerr.ErrInvalidTransition):
		return &HTTPError{Status: http.StatusConflict, Message: err.Error(), Err: err}
	}
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Err: err}
}

func badRequest(msg string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: msg, Err: domainerr.ErrValidation}
}

func notFound() error {
	return &HTTPError{Status: http.StatusNotFound, Message: "not found", Err: domainerr.ErrNotFound}
}

func unauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
