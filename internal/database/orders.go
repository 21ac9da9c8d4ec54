package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_id, external_order_id, restaurant_id, idempotency_key,
	customer_name, customer_phone, customer_email, customer_address,
	order_type, order_time, requested_time,
	subtotal, tax, tip, discount, delivery_fee, total,
	payment_method, payment_status, payment_transaction_id, payment_amount,
	notes, status, source, raw_metadata, estimated_time, cancellation_reason,
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderID, &o.ExternalOrderID, &o.RestaurantID, &o.IdempotencyKey,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.CustomerAddress,
		&o.OrderType, &o.OrderTime, &o.RequestedTime,
		&o.Subtotal, &o.Tax, &o.Tip, &o.Discount, &o.DeliveryFee, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.PaymentTransactionID, &o.PaymentAmount,
		&o.Notes, &o.Status, &o.Source, &o.RawMetadata, &o.EstimatedTime, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	ID                   uuid.UUID
	OrderID              string
	ExternalOrderID      string
	RestaurantID         string
	IdempotencyKey       string
	CustomerName         string
	CustomerPhone        string
	CustomerEmail        pgtype.Text
	CustomerAddress      []byte
	OrderType            string
	OrderTime            pgtype.Timestamptz
	RequestedTime        pgtype.Timestamptz
	Subtotal             pgtype.Numeric
	Tax                  pgtype.Numeric
	Tip                  pgtype.Numeric
	Discount             pgtype.Numeric
	DeliveryFee          pgtype.Numeric
	Total                pgtype.Numeric
	PaymentMethod        pgtype.Text
	PaymentStatus        string
	PaymentTransactionID pgtype.Text
	PaymentAmount        pgtype.Numeric
	Notes                string
	Status               string
	Source               pgtype.Text
	RawMetadata          []byte
}

// CreateOrder inserts the order row. Unique constraints on
// idempotency_key and order_id reject duplicate submissions racing the
// pre-insert existence check.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			id, order_id, external_order_id, restaurant_id, idempotency_key,
			customer_name, customer_phone, customer_email, customer_address,
			order_type, order_time, requested_time,
			subtotal, tax, tip, discount, delivery_fee, total,
			payment_method, payment_status, payment_transaction_id, payment_amount,
			notes, status, source, raw_metadata
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22,
			$23, $24, $25, $26
		)
		RETURNING `+orderColumns,
		arg.ID, arg.OrderID, arg.ExternalOrderID, arg.RestaurantID, arg.IdempotencyKey,
		arg.CustomerName, arg.CustomerPhone, arg.CustomerEmail, arg.CustomerAddress,
		arg.OrderType, arg.OrderTime, arg.RequestedTime,
		arg.Subtotal, arg.Tax, arg.Tip, arg.Discount, arg.DeliveryFee, arg.Total,
		arg.PaymentMethod, arg.PaymentStatus, arg.PaymentTransactionID, arg.PaymentAmount,
		arg.Notes, arg.Status, arg.Source, arg.RawMetadata,
	)
	return scanOrder(row)
}

// GetOrderByPublicID fetches an order by its externally-visible id.
func (q *Queries) GetOrderByPublicID(ctx context.Context, orderID string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	return scanOrder(row)
}

// GetOrderByIdempotencyKey fetches an order by idempotency key.
func (q *Queries) GetOrderByIdempotencyKey(ctx context.Context, key string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status       pgtype.Text
	RestaurantID pgtype.Text
	Limit        int32
	Offset       int32
}

// ListOrders returns a page of orders, newest first, with optional
// status and restaurant filters.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR restaurant_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Status, arg.RestaurantID, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountOrders counts orders matching the same filters as ListOrders.
func (q *Queries) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR restaurant_id = $2)`,
		arg.Status, arg.RestaurantID,
	).Scan(&n)
	return n, err
}

type UpdateOrderStatusParams struct {
	OrderID       string
	Status        string
	CurrentStatus string
	EstimatedTime pgtype.Timestamptz
	Notes         pgtype.Text
}

// UpdateOrderStatus applies a status transition only if the order is
// still in the status the caller validated against, so a concurrent
// transition surfaces as pgx.ErrNoRows instead of silently overwriting.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
		    estimated_time = COALESCE($4, estimated_time),
		    notes = COALESCE($5, notes),
		    updated_at = now()
		WHERE order_id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.OrderID, arg.Status, arg.CurrentStatus, arg.EstimatedTime, arg.Notes,
	)
	return scanOrder(row)
}

type CancelOrderParams struct {
	OrderID string
	Reason  string
	Notes   pgtype.Text
}

// CancelOrder cancels atomically: the guard rejects orders already in a
// terminal status, surfacing pgx.ErrNoRows.
func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'cancelled',
		    cancellation_reason = $2,
		    notes = COALESCE($3, notes),
		    updated_at = now()
		WHERE order_id = $1 AND status NOT IN ('completed', 'cancelled')
		RETURNING `+orderColumns,
		arg.OrderID, arg.Reason, arg.Notes,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	ItemID              string
	SKU                 pgtype.Text
	MenuID              pgtype.Text
	Name                string
	OriginalName        pgtype.Text
	Quantity            int32
	UnitPrice           pgtype.Numeric
	TotalPrice          pgtype.Numeric
	Category            pgtype.Text
	SpecialInstructions pgtype.Text
	Position            int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (
			id, order_id, item_id, sku, menu_id, name, original_name,
			quantity, unit_price, total_price, category, special_instructions, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, order_id, item_id, sku, menu_id, name, original_name,
			quantity, unit_price, total_price, category, special_instructions, position, created_at`,
		arg.ID, arg.OrderID, arg.ItemID, arg.SKU, arg.MenuID, arg.Name, arg.OriginalName,
		arg.Quantity, arg.UnitPrice, arg.TotalPrice, arg.Category, arg.SpecialInstructions, arg.Position,
	)
	return scanOrderItem(row)
}

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ItemID, &it.SKU, &it.MenuID, &it.Name, &it.OriginalName,
		&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Category, &it.SpecialInstructions,
		&it.Position, &it.CreatedAt,
	)
	return it, err
}

// ListOrderItemsByOrder returns items in insertion order.
func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, item_id, sku, menu_id, name, original_name,
			quantity, unit_price, total_price, category, special_instructions, position, created_at
		FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type CreateOrderItemModifierParams struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	ModifierID  pgtype.Text
	Name        string
	Price       pgtype.Numeric
	Quantity    int32
	Position    int32
}

func (q *Queries) CreateOrderItemModifier(ctx context.Context, arg CreateOrderItemModifierParams) (OrderItemModifier, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_item_modifiers (id, order_item_id, modifier_id, name, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, order_item_id, modifier_id, name, price, quantity, position, created_at`,
		arg.ID, arg.OrderItemID, arg.ModifierID, arg.Name, arg.Price, arg.Quantity, arg.Position,
	)
	var m OrderItemModifier
	err := row.Scan(&m.ID, &m.OrderItemID, &m.ModifierID, &m.Name, &m.Price, &m.Quantity, &m.Position, &m.CreatedAt)
	return m, err
}

// ListOrderItemModifiersByOrderItem returns modifiers in insertion order.
func (q *Queries) ListOrderItemModifiersByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemModifier, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_item_id, modifier_id, name, price, quantity, position, created_at
		FROM order_item_modifiers WHERE order_item_id = $1 ORDER BY position`, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []OrderItemModifier
	for rows.Next() {
		var m OrderItemModifier
		if err := rows.Scan(&m.ID, &m.OrderItemID, &m.ModifierID, &m.Name, &m.Price, &m.Quantity, &m.Position, &m.CreatedAt); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// DeleteAllOrders removes every order; children cascade.
func (q *Queries) DeleteAllOrders(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders`)
	return tag.RowsAffected(), err
}

// DeleteOrdersByRestaurant removes all orders for one restaurant;
// children cascade.
func (q *Queries) DeleteOrdersByRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE restaurant_id = $1`, restaurantID)
	return tag.RowsAffected(), err
}
