package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the provider answered but had nothing for the symbol or year
	ErrNoData = errors.New("no data")
	// ErrInvalidPayload means a required field was missing, unparseable or not positive
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrProviderMessage means the provider answered with an error or rate-limit notice
	ErrProviderMessage = errors.New("provider error message")
)

// ProviderError is a failed call to one financial data provider
type ProviderError struct {
	Source Source
	Symbol string
	Year   int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Year > 0 {
		return fmt.Sprintf("%s %s (%d): %v", e.Source, e.Symbol, e.Year, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}
