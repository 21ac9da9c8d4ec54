// Package validate performs structural validation of canonical orders.
// Every violation in a request is collected before failing, so a client
// fixing a bad payload sees the whole list in one round trip.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/model"
)

// Validator checks canonical orders against the structural rules the
// storage layer enforces, surfacing them as field violations instead of
// constraint errors.
type Validator struct {
	v *validator.Validate

	// priceAuthority decides whether items must submit their own unit
	// price: under POS authority the catalog fills prices, so an absent
	// one is not a violation.
	priceAuthority string
}

// New builds a Validator reporting fields by their JSON names.
func New(priceAuthority string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v, priceAuthority: priceAuthority}
}

// Order validates o and returns a ValidationError carrying every
// violation, or nil when the order is structurally sound.
func (val *Validator) Order(o *model.Order) error {
	var violations []apperr.FieldViolation

	if err := val.v.Struct(o); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return invalid
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			violations = append(violations, apperr.FieldViolation{
				Field:   fieldPath(fe),
				Message: messageFor(fe),
			})
		}
	}

	violations = append(violations, val.itemViolations(o)...)

	if len(violations) > 0 {
		return apperr.Validation(violations...)
	}
	return nil
}

// itemViolations covers the item rules struct tags cannot express:
// every item needs some catalog key, and outside POS authority every
// item must submit a unit price (zero counts, absent does not).
func (val *Validator) itemViolations(o *model.Order) []apperr.FieldViolation {
	var out []apperr.FieldViolation
	for i := range o.Items {
		item := &o.Items[i]
		if item.CatalogKey() == "" {
			out = append(out, apperr.FieldViolation{
				Field:   fmt.Sprintf("items[%d]", i),
				Message: "must carry a sku, menuId, or itemId",
			})
		}
		if val.priceAuthority != enum.PriceAuthorityPOS && !item.UnitPriceSet {
			out = append(out, apperr.FieldViolation{
				Field:   fmt.Sprintf("items[%d].unitPrice", i),
				Message: "is required",
			})
		}
	}
	return out
}

// fieldPath turns validator's namespace (Order.items[0].quantity) into
// the path clients see in their own payloads.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s element(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or greater", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
