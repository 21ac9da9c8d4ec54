package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/mapper"
	"github.com/posgate/api/internal/model"
	"github.com/posgate/api/internal/notify"
	"github.com/posgate/api/internal/pricing"
	"github.com/posgate/api/internal/validate"
	"github.com/rs/zerolog/log"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the ingestion pipeline needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemModifier(ctx context.Context, arg database.CreateOrderItemModifierParams) (database.OrderItemModifier, error)
	GetOrderByPublicID(ctx context.Context, orderID string) (database.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CountOrders(ctx context.Context, arg database.ListOrdersParams) (int64, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemModifiersByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemModifier, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	DeleteAllOrders(ctx context.Context) (int64, error)
	DeleteOrdersByRestaurant(ctx context.Context, restaurantID string) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// validTransitions is the order lifecycle. Terminal statuses have no
// outgoing edges; cancellation is handled separately because it carries
// a reason.
var validTransitions = map[string][]string{
	enum.OrderStatusReceived:  {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusCancelled: {},
}

var validCancelReasons = map[string]bool{
	enum.CancelReasonCustomerRequest: true,
	enum.CancelReasonOutOfStock:      true,
	enum.CancelReasonPaymentFailed:   true,
	enum.CancelReasonOther:           true,
}

// OrderService runs the ingestion pipeline and the order lifecycle.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore

	mapper     *mapper.Mapper
	validator  *validate.Validator
	resolver   *pricing.Resolver
	reconciler *pricing.Reconciler
	notifier   *notify.Notifier
}

// OrderServiceParams bundles the pipeline stages for NewOrderService.
type OrderServiceParams struct {
	Pool       TxBeginner
	Store      OrderStore
	NewStore   NewOrderStore
	Mapper     *mapper.Mapper
	Validator  *validate.Validator
	Resolver   *pricing.Resolver
	Reconciler *pricing.Reconciler
	Notifier   *notify.Notifier
}

// NewOrderService creates a new OrderService.
func NewOrderService(p OrderServiceParams) *OrderService {
	return &OrderService{
		pool:       p.Pool,
		store:      p.Store,
		newStore:   p.NewStore,
		mapper:     p.Mapper,
		validator:  p.Validator,
		resolver:   p.Resolver,
		reconciler: p.Reconciler,
		notifier:   p.Notifier,
	}
}

// IngestResult is the outcome of one submission.
type IngestResult struct {
	Order *model.Order
	// Created is false when the submission replayed an idempotency key
	// and the stored order was returned instead.
	Created bool
}

// Ingest runs the full pipeline on a raw decoded payload: map to the
// canonical shape, validate structurally, resolve prices, reconcile
// totals, then write atomically. idempotencyKey may be empty; a fresh
// key is generated so retries of the response can still be correlated.
// source names the submitting client and is recorded when the payload
// itself does not declare one.
func (s *OrderService) Ingest(ctx context.Context, raw any, idempotencyKey, source string) (*IngestResult, error) {
	order, trace := s.mapper.Map(raw)
	if order.Source == "" {
		order.Source = source
	}

	if err := s.validator.Order(&order); err != nil {
		return nil, err
	}
	if err := s.resolver.Resolve(ctx, &order); err != nil {
		return nil, err
	}
	if err := s.reconciler.Reconcile(&order); err != nil {
		return nil, err
	}

	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	// Fast path: a replayed key returns the stored order. The unique
	// constraint below catches submissions racing this check.
	if existing, err := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey); err == nil {
		stored, err := s.assemble(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &IngestResult{Order: stored, Created: false}, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	row, err := s.createOrderTx(ctx, &order, idempotencyKey, trace)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "orders_idempotency_key_key":
				existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey)
				if lookupErr != nil {
					return nil, fmt.Errorf("idempotency replay lookup: %w", lookupErr)
				}
				stored, assembleErr := s.assemble(ctx, existing)
				if assembleErr != nil {
					return nil, assembleErr
				}
				return &IngestResult{Order: stored, Created: false}, nil
			case "orders_order_id_key":
				return nil, apperr.Conflict("order %s already exists", order.OrderID)
			}
		}
		return nil, err
	}

	stored, err := s.assemble(ctx, row)
	if err != nil {
		return nil, err
	}
	s.notifier.OrderCreated(stored)

	log.Info().
		Str("orderId", stored.OrderID).
		Str("restaurantId", stored.RestaurantID).
		Str("sourcePath", trace.SourcePath).
		Int("items", len(stored.Items)).
		Msg("order ingested")

	return &IngestResult{Order: stored, Created: true}, nil
}

// createOrderTx writes the order row, its items, and their modifiers in
// one transaction. Children carry explicit positions so read-back
// returns them in submission order.
func (s *OrderService) createOrderTx(ctx context.Context, order *model.Order, idempotencyKey string, trace mapper.Trace) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	params, err := createOrderParams(order, idempotencyKey, trace)
	if err != nil {
		return database.Order{}, err
	}

	row, err := store.CreateOrder(ctx, params)
	if err != nil {
		return database.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		itemRow, err := store.CreateOrderItem(ctx, createOrderItemParams(row.ID, i, &item))
		if err != nil {
			return database.Order{}, fmt.Errorf("insert item %d: %w", i, err)
		}
		for j, mod := range item.Modifiers {
			if _, err := store.CreateOrderItemModifier(ctx, createModifierParams(itemRow.ID, j, &mod)); err != nil {
				return database.Order{}, fmt.Errorf("insert item %d modifier %d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return row, nil
}

// Get returns one order with its items and modifiers.
func (s *OrderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	row, err := s.store.GetOrderByPublicID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("order", orderID)
		}
		return nil, err
	}
	return s.assemble(ctx, row)
}

// ListParams filters and paginates List.
type ListParams struct {
	Status       string
	RestaurantID string
	Limit        int32
	Offset       int32
}

// Page is one page of orders plus the unfiltered total for pagination.
type Page struct {
	Orders []*model.Order
	Total  int64
}

// List returns a page of orders, newest first.
func (s *OrderService) List(ctx context.Context, p ListParams) (*Page, error) {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 50
	}
	arg := database.ListOrdersParams{
		Status:       textOrNull(p.Status),
		RestaurantID: textOrNull(p.RestaurantID),
		Limit:        p.Limit,
		Offset:       p.Offset,
	}

	rows, err := s.store.ListOrders(ctx, arg)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountOrders(ctx, arg)
	if err != nil {
		return nil, err
	}

	orders := make([]*model.Order, 0, len(rows))
	for _, row := range rows {
		o, err := s.assemble(ctx, row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return &Page{Orders: orders, Total: total}, nil
}

// UpdateStatusRequest moves an order along its lifecycle.
type UpdateStatusRequest struct {
	OrderID       string
	Status        string
	EstimatedTime *time.Time
	Notes         string
}

// UpdateStatus applies one lifecycle transition. Unknown target
// statuses are validation failures; transitions the lifecycle does not
// allow, including any move out of a terminal status, are conflicts.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*model.Order, error) {
	if _, known := validTransitions[req.Status]; !known {
		return nil, apperr.Validation(apperr.FieldViolation{
			Field:   "status",
			Message: "must be one of: received, preparing, ready, completed, cancelled",
		})
	}
	if req.Status == enum.OrderStatusCancelled {
		return nil, apperr.Validation(apperr.FieldViolation{
			Field:   "status",
			Message: "use the cancel endpoint to cancel an order",
		})
	}

	current, err := s.store.GetOrderByPublicID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("order", req.OrderID)
		}
		return nil, err
	}

	if !transitionAllowed(current.Status, req.Status) {
		return nil, apperr.Conflict("cannot transition order %s from %s to %s", req.OrderID, current.Status, req.Status)
	}

	row, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		OrderID:       req.OrderID,
		Status:        req.Status,
		CurrentStatus: current.Status,
		EstimatedTime: tsOrNull(req.EstimatedTime),
		Notes:         textOrNull(req.Notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The WHERE guard lost a race with another transition.
			return nil, apperr.Conflict("order %s status changed concurrently", req.OrderID)
		}
		return nil, err
	}

	updated, err := s.assemble(ctx, row)
	if err != nil {
		return nil, err
	}
	s.notifier.StatusChanged(updated)
	return updated, nil
}

// Cancel moves an order to cancelled from any non-terminal status.
func (s *OrderService) Cancel(ctx context.Context, orderID, reason, notes string) (*model.Order, error) {
	if reason == "" {
		reason = enum.CancelReasonOther
	}
	if !validCancelReasons[reason] {
		return nil, apperr.Validation(apperr.FieldViolation{
			Field:   "reason",
			Message: "must be one of: customer_request, out_of_stock, payment_failed, other",
		})
	}

	row, err := s.store.CancelOrder(ctx, database.CancelOrderParams{
		OrderID: orderID,
		Reason:  reason,
		Notes:   textOrNull(notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order does not exist or it is already terminal.
			current, getErr := s.store.GetOrderByPublicID(ctx, orderID)
			if getErr != nil {
				return nil, apperr.NotFound("order", orderID)
			}
			return nil, apperr.Conflict("order %s is already %s", orderID, current.Status)
		}
		return nil, err
	}

	cancelled, err := s.assemble(ctx, row)
	if err != nil {
		return nil, err
	}
	s.notifier.StatusChanged(cancelled)
	return cancelled, nil
}

// ClearAll deletes every order. Admin/test tooling only.
func (s *OrderService) ClearAll(ctx context.Context) (int64, error) {
	return s.store.DeleteAllOrders(ctx)
}

// ClearRestaurant deletes all orders for one restaurant.
func (s *OrderService) ClearRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	return s.store.DeleteOrdersByRestaurant(ctx, restaurantID)
}

func transitionAllowed(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// assemble loads children and converts a row into the canonical model,
// items ordered by their stored position.
func (s *OrderService) assemble(ctx context.Context, row database.Order) (*model.Order, error) {
	items, err := s.store.ListOrderItemsByOrder(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list items for %s: %w", row.OrderID, err)
	}
	mods := make(map[uuid.UUID][]database.OrderItemModifier, len(items))
	for _, it := range items {
		m, err := s.store.ListOrderItemModifiersByOrderItem(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("list modifiers for %s: %w", row.OrderID, err)
		}
		mods[it.ID] = m
	}
	return orderFromRows(row, items, mods), nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func tsOrNull(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func rawMetadata(trace mapper.Trace) []byte {
	raw, err := json.Marshal(trace)
	if err != nil {
		return nil
	}
	return raw
}
