// Package apperr defines the error taxonomy the HTTP layer maps onto
// status codes. Pipeline stages fail fast with one of these; anything
// else is treated as an internal error and hidden from clients.
package apperr

import (
	"errors"
	"fmt"
)

// FieldViolation pinpoints one offending item/field in a request.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every structural violation in a request
// rather than stopping at the first one.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d violation(s)", len(e.Violations))
}

// Validation builds a ValidationError from violations.
func Validation(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// MismatchDetail reports one reconciliation comparison.
type MismatchDetail struct {
	Calculated float64 `json:"calculated"`
	Submitted  float64 `json:"submitted"`
	Diff       float64 `json:"diff"`
}

// TotalsMismatchError is returned when the recomputed subtotal or total
// disagrees with the submitted values beyond the configured tolerance.
type TotalsMismatchError struct {
	Subtotal MismatchDetail `json:"subtotal"`
	Total    MismatchDetail `json:"total"`
}

func (e *TotalsMismatchError) Error() string {
	return fmt.Sprintf("Totals mismatch: subtotal calculated=%.2f submitted=%.2f, total calculated=%.2f submitted=%.2f",
		e.Subtotal.Calculated, e.Subtotal.Submitted, e.Total.Calculated, e.Total.Submitted)
}

// NotFoundError marks a missing resource (unknown order id, payload key).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError marks a mutation rejected by current state: terminal-order
// updates and idempotency-key collisions racing the storage constraint.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// UnresolvedItem names an item the catalog could not price.
type UnresolvedItem struct {
	Index  int    `json:"index"`
	SKU    string `json:"sku,omitempty"`
	MenuID string `json:"menuId,omitempty"`
}

// PriceResolutionError is returned under POS price authority when one or
// more items have no catalog price. It surfaces to clients as a
// validation failure naming the unresolved keys.
type PriceResolutionError struct {
	Items []UnresolvedItem
}

func (e *PriceResolutionError) Error() string {
	return fmt.Sprintf("price resolution failed for %d item(s)", len(e.Items))
}

// IsValidation reports whether err is any 400-class pipeline error.
func IsValidation(err error) bool {
	var ve *ValidationError
	var te *TotalsMismatchError
	var pe *PriceResolutionError
	return errors.As(err, &ve) || errors.As(err, &te) || errors.As(err, &pe)
}
