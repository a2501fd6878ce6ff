package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation     = "https://prestamos.pe/errors/validation"
	ErrorTypeNotFound       = "https://prestamos.pe/errors/not-found"
	ErrorTypeConflict       = "https://prestamos.pe/errors/conflict"
	ErrorTypeNotImplemented = "https://prestamos.pe/errors/not-implemented"
	ErrorTypeInternal       = "https://prestamos.pe/errors/internal"
)

func problem(c echo.Context, status int, typ, title, detail string, fields []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewNotImplementedError creates a not implemented error response
func NewNotImplementedError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotImplemented, ErrorTypeNotImplemented, "Not Implemented", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// errorFields maps domain errors to the request field they concern
var errorFields = map[error]string{
	domain.ErrDocumentTypeInvalid:       "documentType",
	domain.ErrDocumentNumberRequired:    "documentNumber",
	domain.ErrDNILength:                 "documentNumber",
	domain.ErrRUCLength:                 "documentNumber",
	domain.ErrDocumentNotNumeric:        "documentNumber",
	domain.ErrPartyRequired:             "kind",
	domain.ErrGivenNamesRequired:        "givenNames",
	domain.ErrFamilyNamesRequired:       "familyNames",
	domain.ErrBusinessNameRequired:      "businessName",
	domain.ErrPrincipalInvalid:          "principal",
	domain.ErrPrincipalTooLarge:         "principal",
	domain.ErrPrincipalPrecision:        "principal",
	domain.ErrNameTooLong:               "name",
	domain.ErrRateInvalid:               "annualRate",
	domain.ErrRateTooHigh:               "annualRate",
	domain.ErrRatePrecision:             "annualRate",
	domain.ErrTermInvalid:               "termMonths",
	domain.ErrTermTooLong:               "termMonths",
	domain.ErrInterestMethodInvalid:     "method",
	domain.ErrStartDateRequired:         "startDate",
	domain.ErrNotesTooLong:              "notes",
	domain.ErrInstallmentAlreadyPaid:    "installmentNumber",
	domain.ErrPaymentAmountInvalid:      "amount",
	domain.ErrPaymentAmountTooLarge:     "amount",
	domain.ErrPaymentAmountPrecision:    "amount",
	domain.ErrPaymentMethodInvalid:      "method",
	domain.ErrPaymentDateRequired:       "paymentDate",
	domain.ErrClientDocumentTaken:       "documentNumber",
	domain.ErrDuplicateInstallmentPay:   "installmentNumber",
	domain.ErrDocumentLookupUnavailable: "documentNumber",
}

// errorMessage strips the kind prefix from a domain error, leaving the specific message
func errorMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func fieldsFor(err error) []ValidationError {
	for target, field := range errorFields {
		if errors.Is(err, target) {
			return []ValidationError{{Field: field, Message: errorMessage(err)}}
		}
	}
	return nil
}

// handleError writes the problem response matching err's kind.
// Unclassified errors are logged and reported as 500 without their cause.
func handleError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return NewValidationError(c, errorMessage(err), fieldsFor(err))
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, errorMessage(err))
	case errors.Is(err, domain.ErrConflict):
		return NewConflictError(c, errorMessage(err))
	case errors.Is(err, domain.ErrNotImplemented):
		return NewNotImplementedError(c, errorMessage(err))
	case errors.Is(err, domain.ErrComputation):
		log.Error().Err(err).Str("action", action).Msg("Computation failed")
		return NewValidationError(c, errorMessage(err), nil)
	default:
		log.Error().Err(err).Str("action", action).Str("path", c.Request().URL.Path).Msg("Request failed")
		return NewInternalError(c, "Failed to "+action)
	}
}
