package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers. Every rejected precondition maps to one of
// these so the presentation layer can render a precise message.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeTicketClosed      = "TICKET_CLOSED"
	CodeWindowExpired     = "WINDOW_EXPIRED"
	CodeEmptyMessage      = "EMPTY_MESSAGE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyRemediated = "ALREADY_REMEDIATED"
	CodeValidation        = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewTicketClosed reports a reply or inbound append attempted on a resolved ticket.
func NewTicketClosed(ticketID string) error {
	return NewDomainError(CodeTicketClosed, "ticket is resolved; reopen it or open a new ticket",
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

// NewWindowExpired reports a reply attempted outside the 24-hour session window.
func NewWindowExpired(ticketID string) error {
	return NewDomainError(CodeWindowExpired, "24-hour session window expired; contact the user personally",
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

// NewEmptyMessage reports a blank reply body.
func NewEmptyMessage() error {
	return NewDomainError(CodeEmptyMessage, "reply text must not be empty", http.StatusBadRequest, nil)
}

// NewInvalidTransition reports an illegal ticket status change.
func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot transition ticket from %s to %s", from, to),
		http.StatusConflict, map[string]any{"from": from, "to": to})
}

// NewAlreadyRemediated reports a double remediation of a broadcast record.
func NewAlreadyRemediated(broadcastID string) error {
	return NewDomainError(CodeAlreadyRemediated, "broadcast already marked as manually sent",
		http.StatusConflict, map[string]any{"broadcast_id": broadcastID})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf extracts the error code, or empty string for nil errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	return err != nil && ToDomainError(err).Code == code
}
