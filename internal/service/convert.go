package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/mapper"
	"github.com/posgate/api/internal/model"
)

func createOrderParams(o *model.Order, idempotencyKey string, trace mapper.Trace) (database.CreateOrderParams, error) {
	var address []byte
	if o.Customer.Address != nil {
		raw, err := json.Marshal(o.Customer.Address)
		if err != nil {
			return database.CreateOrderParams{}, fmt.Errorf("marshal address: %w", err)
		}
		address = raw
	}

	return database.CreateOrderParams{
		ID:                   uuid.New(),
		OrderID:              o.OrderID,
		ExternalOrderID:      o.ExternalOrderID,
		RestaurantID:         o.RestaurantID,
		IdempotencyKey:       idempotencyKey,
		CustomerName:         o.Customer.Name,
		CustomerPhone:        o.Customer.Phone,
		CustomerEmail:        textOrNull(o.Customer.Email),
		CustomerAddress:      address,
		OrderType:            o.OrderType,
		OrderTime:            pgtype.Timestamptz{Time: o.OrderTime, Valid: true},
		RequestedTime:        tsOrNull(o.RequestedTime),
		Subtotal:             database.FloatToNumeric(o.Totals.Subtotal),
		Tax:                  database.FloatToNumeric(o.Totals.Tax),
		Tip:                  database.FloatToNumeric(o.Totals.Tip),
		Discount:             database.FloatToNumeric(o.Totals.Discount),
		DeliveryFee:          database.FloatToNumeric(o.Totals.DeliveryFee),
		Total:                database.FloatToNumeric(o.Totals.Total),
		PaymentMethod:        textOrNull(o.Payment.Method),
		PaymentStatus:        o.Payment.Status,
		PaymentTransactionID: textOrNull(o.Payment.TransactionID),
		PaymentAmount:        database.FloatToNumeric(o.Payment.Amount),
		Notes:                o.Notes,
		Status:               o.Status,
		Source:               textOrNull(o.Source),
		RawMetadata:          rawMetadata(trace),
	}, nil
}

func createOrderItemParams(orderID uuid.UUID, position int, item *model.OrderItem) database.CreateOrderItemParams {
	return database.CreateOrderItemParams{
		ID:                  uuid.New(),
		OrderID:             orderID,
		ItemID:              item.ItemID,
		SKU:                 textOrNull(item.SKU),
		MenuID:              textOrNull(item.MenuID),
		Name:                item.Name,
		OriginalName:        textOrNull(item.OriginalName),
		Quantity:            int32(item.Quantity),
		UnitPrice:           database.FloatToNumeric(item.UnitPrice),
		TotalPrice:          database.FloatToNumeric(item.TotalPrice),
		Category:            textOrNull(item.Category),
		SpecialInstructions: textOrNull(item.SpecialInstructions),
		Position:            int32(position),
	}
}

func createModifierParams(orderItemID uuid.UUID, position int, mod *model.Modifier) database.CreateOrderItemModifierParams {
	// Line math treats a zero modifier quantity as 1; persist the same.
	if mod.Quantity <= 0 {
		mod.Quantity = 1
	}
	return database.CreateOrderItemModifierParams{
		ID:          uuid.New(),
		OrderItemID: orderItemID,
		ModifierID:  textOrNull(mod.ModifierID),
		Name:        mod.Name,
		Price:       database.FloatToNumeric(mod.Price),
		Quantity:    int32(mod.Quantity),
		Position:    int32(position),
	}
}

// orderFromRows converts storage rows back to the canonical model.
func orderFromRows(row database.Order, items []database.OrderItem, mods map[uuid.UUID][]database.OrderItemModifier) *model.Order {
	o := &model.Order{
		OrderID:         row.OrderID,
		ExternalOrderID: row.ExternalOrderID,
		RestaurantID:    row.RestaurantID,
		Customer: model.Customer{
			Name:  row.CustomerName,
			Phone: row.CustomerPhone,
			Email: row.CustomerEmail.String,
		},
		OrderType:     row.OrderType,
		OrderTime:     row.OrderTime,
		RequestedTime: timePtr(row.RequestedTime),
		Totals: model.Totals{
			Subtotal:    database.NumericToFloat(row.Subtotal),
			Tax:         database.NumericToFloat(row.Tax),
			Tip:         database.NumericToFloat(row.Tip),
			Discount:    database.NumericToFloat(row.Discount),
			DeliveryFee: database.NumericToFloat(row.DeliveryFee),
			Total:       database.NumericToFloat(row.Total),
		},
		Payment: model.Payment{
			Method:        row.PaymentMethod.String,
			Status:        row.PaymentStatus,
			TransactionID: row.PaymentTransactionID.String,
			Amount:        database.NumericToFloat(row.PaymentAmount),
		},
		Notes:              row.Notes,
		Status:             row.Status,
		CancellationReason: row.CancellationReason.String,
		Source:             row.Source.String,
		EstimatedTime:      timePtr(row.EstimatedTime),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}

	if len(row.CustomerAddress) > 0 {
		var addr model.Address
		if err := json.Unmarshal(row.CustomerAddress, &addr); err == nil {
			o.Customer.Address = &addr
		}
	}

	o.Items = make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		item := model.OrderItem{
			ItemID:              it.ItemID,
			SKU:                 it.SKU.String,
			MenuID:              it.MenuID.String,
			Name:                it.Name,
			OriginalName:        it.OriginalName.String,
			Quantity:            int(it.Quantity),
			UnitPrice:           database.NumericToFloat(it.UnitPrice),
			TotalPrice:          database.NumericToFloat(it.TotalPrice),
			Category:            it.Category.String,
			SpecialInstructions: it.SpecialInstructions.String,
			Modifiers:           []model.Modifier{},
		}
		for _, m := range mods[it.ID] {
			item.Modifiers = append(item.Modifiers, model.Modifier{
				ModifierID: m.ModifierID.String,
				Name:       m.Name,
				Price:      database.NumericToFloat(m.Price),
				Quantity:   int(m.Quantity),
			})
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
