package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
	OrderTypeDineIn   = "dine-in"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
)

const (
	PaymentMethodCreditCard    = "credit_card"
	PaymentMethodDebitCard     = "debit_card"
	PaymentMethodCash          = "cash"
	PaymentMethodMobilePayment = "mobile_payment"
)

const (
	CancelReasonCustomerRequest = "customer_request"
	CancelReasonOutOfStock      = "out_of_stock"
	CancelReasonPaymentFailed   = "payment_failed"
	CancelReasonOther           = "other"
)

// ── Pricing policy ──

// Price authority decides whether unit prices come from the POS catalog
// or are trusted as submitted by the client application.
const (
	PriceAuthorityApp = "app"
	PriceAuthorityPOS = "pos"
)

// CatalogKeyKind names which item identifier a catalog lookup uses.
type CatalogKeyKind string

const (
	CatalogKeySKU    CatalogKeyKind = "sku"
	CatalogKeyMenuID CatalogKeyKind = "menuid"
)

// ── Client permissions ──

const (
	PermOrdersCreate  = "orders:create"
	PermOrdersRead    = "orders:read"
	PermOrdersUpdate  = "orders:update"
	PermCatalogWrite  = "catalog:write"
	PermPayloadsRead  = "payloads:read"
	PermPayloadsWrite = "payloads:write"
	PermStatusWebhook = "status:webhook"
	PermAll           = "*"
)
