package validate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/model"
	"github.com/posgate/api/internal/validate"
)

func validOrder() *model.Order {
	return &model.Order{
		OrderID:      "ORD-1",
		RestaurantID: "NYC-DELI-001",
		Customer:     model.Customer{Name: "Jane Doe", Phone: "555-0100"},
		OrderType:    "pickup",
		OrderTime:    time.Now(),
		Items: []model.OrderItem{
			{ItemID: "COFFEE-12OZ", Name: "Coffee", Quantity: 1, UnitPrice: 2.99, UnitPriceSet: true},
		},
		Totals:  model.Totals{Subtotal: 2.99, Total: 2.99},
		Payment: model.Payment{Status: "pending"},
		Status:  "received",
	}
}

func TestOrderValid(t *testing.T) {
	if err := validate.New(enum.PriceAuthorityApp).Order(validOrder()); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}
}

func TestOrderAggregatesAllViolations(t *testing.T) {
	o := validOrder()
	o.OrderType = "teleport"
	o.Items[0].Quantity = 0
	o.Items[0].Name = ""

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) < 3 {
		t.Fatalf("expected at least 3 violations, got %d: %+v", len(ve.Violations), ve.Violations)
	}

	fields := map[string]bool{}
	for _, v := range ve.Violations {
		fields[v.Field] = true
	}
	for _, want := range []string{"orderType", "items[0].name", "items[0].quantity"} {
		if !fields[want] {
			t.Errorf("missing violation for %s; got %+v", want, ve.Violations)
		}
	}
}

func TestOrderRequiresItems(t *testing.T) {
	o := validOrder()
	o.Items = nil

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 1 || ve.Violations[0].Field != "items" {
		t.Errorf("unexpected violations: %+v", ve.Violations)
	}
}

func TestOrderRejectsNegativeMoney(t *testing.T) {
	o := validOrder()
	o.Items[0].UnitPrice = -1
	o.Totals.Tax = -0.50

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 2 {
		t.Errorf("expected 2 violations, got %+v", ve.Violations)
	}
}

func TestOrderRequiresCatalogKey(t *testing.T) {
	o := validOrder()
	o.Items = append(o.Items, model.OrderItem{Name: "Mystery Plate", Quantity: 1, UnitPrice: 5.00, UnitPriceSet: true})

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 1 || ve.Violations[0].Field != "items[1]" {
		t.Errorf("unexpected violations: %+v", ve.Violations)
	}
}

func TestOrderRequiresUnitPriceUnderAppAuthority(t *testing.T) {
	o := validOrder()
	o.Items[0].UnitPrice = 0
	o.Items[0].UnitPriceSet = false

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 1 || ve.Violations[0].Field != "items[0].unitPrice" {
		t.Errorf("unexpected violations: %+v", ve.Violations)
	}
}

func TestOrderAllowsExplicitZeroUnitPrice(t *testing.T) {
	o := validOrder()
	o.Items[0].UnitPrice = 0
	o.Items[0].UnitPriceSet = true

	if err := validate.New(enum.PriceAuthorityApp).Order(o); err != nil {
		t.Fatalf("explicit zero price should be valid, got %v", err)
	}
}

func TestOrderAllowsMissingUnitPriceUnderPOSAuthority(t *testing.T) {
	o := validOrder()
	o.Items[0].UnitPrice = 0
	o.Items[0].UnitPriceSet = false

	if err := validate.New(enum.PriceAuthorityPOS).Order(o); err != nil {
		t.Fatalf("catalog-priced order should not need a submitted price, got %v", err)
	}
}

func TestOrderRejectsUnknownPaymentStatus(t *testing.T) {
	o := validOrder()
	o.Payment.Status = "maybe"

	err := validate.New(enum.PriceAuthorityApp).Order(o)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Violations[0].Field != "payment.status" {
		t.Errorf("unexpected field: %+v", ve.Violations)
	}
}
