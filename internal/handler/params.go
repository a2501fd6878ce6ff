package handler

import (
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// MoneyResponse is an amount with its "S/ 1,234.56" rendering
type MoneyResponse struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

func newMoney(d decimal.Decimal) MoneyResponse {
	return MoneyResponse{Amount: d.StringFixed(2), Display: domain.FormatSoles(d)}
}

// parseUUIDParam reads a path parameter as a UUID
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func invalidIDError(c echo.Context, name string) error {
	return NewValidationError(c, "Invalid "+name, []ValidationError{
		{Field: name, Message: "Must be a valid UUID"},
	})
}

// parseAsOf reads the optional asOf query parameter, defaulting to today
func parseAsOf(c echo.Context, now func() time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(c.QueryParam("asOf"))
	if raw == "" {
		return domain.DateOf(now()), true
	}
	asOf, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return asOf, true
}

func invalidAsOf(c echo.Context) error {
	return NewValidationError(c, "Invalid asOf date", []ValidationError{
		{Field: "asOf", Message: "Must be in YYYY-MM-DD format"},
	})
}

// parseAmount parses a required decimal amount field
func parseAmount(raw, field string) (decimal.Decimal, *ValidationError) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: "Must be a valid decimal number"}
	}
	return d, nil
}

// parseDateField parses a required YYYY-MM-DD field
func parseDateField(raw, field string) (time.Time, *ValidationError) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, &ValidationError{Field: field, Message: "Required"}
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: "Must be in YYYY-MM-DD format"}
	}
	return t, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}
