package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/kitewire/treasury_backend/internal/apperrors"
)

// journalScale is the fixed scale journal line amounts are stored at.
const journalScale = 6

// CurrencyCode is an ISO-4217 currency code, validated at construction.
type CurrencyCode string

// ParseCurrencyCode normalizes and validates an ISO-4217 code. An invalid
// code is a construction-time failure, never a later one.
func ParseCurrencyCode(value string) (CurrencyCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return "", apperrors.NewValidation("currency is required", nil)
	}
	if _, err := currency.ParseISO(normalized); err != nil {
		return "", apperrors.NewValidation("invalid ISO-4217 currency code", map[string]any{"currency": normalized})
	}
	return CurrencyCode(normalized), nil
}

func (c CurrencyCode) String() string { return string(c) }

// FractionDigits returns the ISO-4217 minor-unit exponent for the currency
// (e.g. 2 for KES, 0 for JPY). Currencies with a coarser cash rounding
// scale, like TWD, still use the ISO exponent here.
func (c CurrencyCode) FractionDigits() int {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		// Construction already validated the code; treat unknowns as 2.
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Money is a positive amount in minor units of a validated currency.
type Money struct {
	AmountMinor int64
	Currency    CurrencyCode
}

// NewMoney builds a Money value, rejecting non-positive amounts and invalid
// currency codes.
func NewMoney(amountMinor int64, currencyCode string) (Money, error) {
	code, err := ParseCurrencyCode(currencyCode)
	if err != nil {
		return Money{}, err
	}
	if amountMinor <= 0 {
		return Money{}, apperrors.NewValidation("amount must be positive", map[string]any{"amount_minor": amountMinor})
	}
	return Money{AmountMinor: amountMinor, Currency: code}, nil
}

// Decimal converts the minor-unit amount to a decimal at the currency's
// fraction digits (12345 KES minor -> 123.45). It fails when representing
// the amount at the fixed journal scale would require rounding.
func (m Money) Decimal() (decimal.Decimal, error) {
	fraction := m.Currency.FractionDigits()
	if fraction > journalScale {
		return decimal.Zero, apperrors.NewInvariantViolation(
			"currency precision exceeds journal scale",
			map[string]any{"currency": m.Currency.String(), "fraction_digits": fraction},
		)
	}
	return decimal.New(m.AmountMinor, -int32(fraction)), nil
}
