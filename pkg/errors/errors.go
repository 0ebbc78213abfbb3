package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// InvalidLinkError represents input that is empty or cannot be parsed at all
type InvalidLinkError struct {
	Input  string
	Reason string
}

func (e *InvalidLinkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid link: %s", e.Reason)
	}
	return "invalid link"
}

func (e *InvalidLinkError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *InvalidLinkError) Code() string {
	return "INVALID_LINK"
}

// NewInvalidLinkError creates a new InvalidLinkError
func NewInvalidLinkError(input, reason string) *InvalidLinkError {
	return &InvalidLinkError{Input: input, Reason: reason}
}

// UnsupportedLinkError represents a URL that parses but is not recognizably
// a Sheets or Drive link and carries no extractable document identifier
type UnsupportedLinkError struct {
	URL string
}

func (e *UnsupportedLinkError) Error() string {
	return fmt.Sprintf("unsupported link: '%s' is not a Google Sheets or Drive link", e.URL)
}

func (e *UnsupportedLinkError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *UnsupportedLinkError) Code() string {
	return "UNSUPPORTED_LINK"
}

// NewUnsupportedLinkError creates a new UnsupportedLinkError
func NewUnsupportedLinkError(url string) *UnsupportedLinkError {
	return &UnsupportedLinkError{URL: url}
}

// MalformedResponseError represents a transport payload that cannot be parsed.
// It is handled inside the fetch cascade by advancing to the next strategy and
// is never surfaced to the REST layer directly.
type MalformedResponseError struct {
	Strategy string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Strategy, e.Reason)
}

func (e *MalformedResponseError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *MalformedResponseError) Code() string {
	return "MALFORMED_RESPONSE"
}

// NewMalformedResponseError creates a new MalformedResponseError
func NewMalformedResponseError(strategy, reason string) *MalformedResponseError {
	return &MalformedResponseError{Strategy: strategy, Reason: reason}
}

// UnavailableError represents exhaustion of every transport strategy
type UnavailableError struct {
	SheetID string
}

func (e *UnavailableError) Error() string {
	return "could not load the sheet: make sure it is publicly viewable " +
		"(Share > Anyone with the link) or published to the web"
}

func (e *UnavailableError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *UnavailableError) Code() string {
	return "SHEET_UNAVAILABLE"
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(sheetID string) *UnavailableError {
	return &UnavailableError{SheetID: sheetID}
}

// EmptyTableError represents a structurally valid payload with no usable
// columns or rows
type EmptyTableError struct {
	Strategy string
}

func (e *EmptyTableError) Error() string {
	return "the sheet contains no data"
}

func (e *EmptyTableError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

func (e *EmptyTableError) Code() string {
	return "EMPTY_TABLE"
}

// NewEmptyTableError creates a new EmptyTableError
func NewEmptyTableError(strategy string) *EmptyTableError {
	return &EmptyTableError{Strategy: strategy}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsInvalidLink checks if an error is an InvalidLinkError
func IsInvalidLink(err error) bool {
	var target *InvalidLinkError
	return errors.As(err, &target)
}

// IsUnsupportedLink checks if an error is an UnsupportedLinkError
func IsUnsupportedLink(err error) bool {
	var target *UnsupportedLinkError
	return errors.As(err, &target)
}

// IsMalformedResponse checks if an error is a MalformedResponseError
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// IsUnavailable checks if an error is an UnavailableError
func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}

// IsEmptyTable checks if an error is an EmptyTableError
func IsEmptyTable(err error) bool {
	var target *EmptyTableError
	return errors.As(err, &target)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}
