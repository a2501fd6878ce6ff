package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// branch with errors.Is without knowing the specific error.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("conflict")
	ErrComputation    = errors.New("computation error")
	ErrNotImplemented = errors.New("not implemented")
)

func kindError(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// Client errors
var (
	ErrClientNotFound         = kindError(ErrNotFound, "client not found")
	ErrDocumentTypeInvalid    = kindError(ErrValidation, "document type must be DNI, RUC or CE")
	ErrDocumentNumberRequired = kindError(ErrValidation, "document number is required")
	ErrDNILength              = kindError(ErrValidation, "DNI must have 8 digits")
	ErrRUCLength              = kindError(ErrValidation, "RUC must have 11 digits")
	ErrDocumentNotNumeric     = kindError(ErrValidation, "document number must contain only digits")
	ErrPartyRequired          = kindError(ErrValidation, "client must be a natural person or a legal entity")
	ErrGivenNamesRequired     = kindError(ErrValidation, "given names are required")
	ErrFamilyNamesRequired    = kindError(ErrValidation, "family names are required")
	ErrBusinessNameRequired   = kindError(ErrValidation, "business name is required")
	ErrNameTooLong            = kindError(ErrValidation, "name exceeds maximum length")
	ErrClientDocumentTaken    = kindError(ErrConflict, "a client with this document already exists")
	ErrClientHasLoans         = kindError(ErrConflict, "client has loans and cannot be deleted")
)

// Loan and schedule errors
var (
	ErrLoanNotFound          = kindError(ErrNotFound, "loan not found")
	ErrPrincipalInvalid      = kindError(ErrValidation, "principal must be positive")
	ErrPrincipalTooLarge     = kindError(ErrValidation, "principal exceeds the maximum amount")
	ErrPrincipalPrecision    = kindError(ErrValidation, "principal must not have more than 2 decimals")
	ErrRateInvalid           = kindError(ErrValidation, "interest rate must not be negative")
	ErrRateTooHigh           = kindError(ErrValidation, "interest rate exceeds the maximum rate")
	ErrRatePrecision         = kindError(ErrValidation, "interest rate must not have more than 3 decimals")
	ErrTermInvalid           = kindError(ErrValidation, "term must be at least 1 month")
	ErrTermTooLong           = kindError(ErrValidation, "term exceeds maximum number of months")
	ErrInterestMethodInvalid = kindError(ErrValidation, "interest method must be simple or compound")
	ErrStartDateRequired     = kindError(ErrValidation, "start date is required")
	ErrNotesTooLong          = kindError(ErrValidation, "notes must be 1000 characters or less")
	ErrLoanClosed            = kindError(ErrValidation, "loan is closed")
	ErrLoanNotFullyPaid      = kindError(ErrValidation, "loan still has unpaid installments")
	ErrLoanHasPayments       = kindError(ErrConflict, "loan has payments and cannot be deleted")
	ErrAnnuityFactor         = kindError(ErrComputation, "annuity factor is not finite")
)

// Payment errors
var (
	ErrInstallmentNotFound     = kindError(ErrNotFound, "installment not found")
	ErrInstallmentAlreadyPaid  = kindError(ErrValidation, "installment is already paid")
	ErrPaymentAmountInvalid    = kindError(ErrValidation, "payment amount must be positive")
	ErrPaymentAmountTooLarge   = kindError(ErrValidation, "payment amount exceeds the maximum amount")
	ErrPaymentAmountPrecision  = kindError(ErrValidation, "payment amount must not have more than 2 decimals")
	ErrPaymentMethodInvalid    = kindError(ErrValidation, "payment method must be cash, bank_transfer, deposit or check")
	ErrPaymentDateRequired     = kindError(ErrValidation, "payment date is required")
	ErrConcurrentModification  = kindError(ErrConflict, "loan was modified concurrently")
	ErrDuplicateInstallmentPay = kindError(ErrConflict, "a payment for this installment already exists")
)

// Collaborator errors
var (
	ErrDocumentLookupUnavailable = kindError(ErrNotImplemented, "document lookup is not implemented")
	ErrStorageNotConfigured      = kindError(ErrNotImplemented, "contract storage is not configured")
)

// Validation constants
const (
	MaxNameLength  = 255
	MaxTermMonths  = 360
	MaxNotesLength = 1000

	// Decimal places stored for money amounts and annual rates
	MoneyPlaces = 2
	RatePlaces  = 3
)

// Upper bounds matching the NUMERIC(14,2) money and NUMERIC(7,3) rate columns
var (
	MaxAmount     = decimal.RequireFromString("999999999999.99")
	MaxAnnualRate = decimal.RequireFromString("9999.999")
)
