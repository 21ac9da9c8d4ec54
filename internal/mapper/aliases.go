package mapper

// Alias tables for canonical field extraction. Each canonical field maps
// to an ordered list of alias paths tried against the payload; the first
// present, non-null, non-empty match wins. Paths may be dotted to reach
// nested objects. Keeping this declarative (data, not per-field code) is
// what lets one generic resolver serve every upstream shape.

var (
	orderIDAliases         = []string{"orderId", "order_id", "id", "orderNumber", "order_number", "number"}
	externalOrderIDAliases = []string{"externalOrderId", "external_order_id", "sourceOrderId", "source_order_id", "originalOrderId", "original_order_id", "upstreamId"}
	restaurantIDAliases    = []string{"restaurantId", "restaurant_id", "storeId", "store_id", "locationId", "location_id", "merchantId", "merchant_id"}
	orderTypeAliases       = []string{"orderType", "order_type", "type", "fulfillmentType", "fulfillment_type", "serviceType", "service_type"}
	orderTimeAliases       = []string{"orderTime", "order_time", "placedAt", "placed_at", "createdAt", "created_at", "timestamp"}
	requestedTimeAliases   = []string{"requestedTime", "requested_time", "scheduledTime", "scheduled_time", "pickupTime", "pickup_time", "deliveryTime", "delivery_time"}
	notesAliases           = []string{"notes", "specialInstructions", "special_instructions", "comments", "memo"}
	statusAliases          = []string{"status", "orderStatus", "order_status"}
	sourceAliases          = []string{"source", "provider", "platform", "channel", "vendor"}

	customerAliases      = []string{"customer", "customerInfo", "customer_info", "user", "guest"}
	customerNameAliases  = []string{"name", "customerName", "customer_name", "fullName", "full_name"}
	customerPhoneAliases = []string{"phone", "phoneNumber", "phone_number", "tel", "mobile"}
	customerEmailAliases = []string{"email", "emailAddress", "email_address"}
	addressAliases       = []string{"address", "deliveryAddress", "delivery_address", "shippingAddress"}
	addressLine1Aliases  = []string{"line1", "address1", "street", "streetAddress", "street_address"}
	addressLine2Aliases  = []string{"line2", "address2", "apt", "unit"}
	addressCityAliases   = []string{"city", "town"}
	addressStateAliases  = []string{"state", "province", "region"}
	addressZipAliases    = []string{"zip", "zipCode", "zip_code", "postalCode", "postal_code"}

	itemsAliases = []string{"items", "orderItems", "order_items", "lineItems", "line_items", "products", "cart.items"}

	itemIDAliases           = []string{"itemId", "item_id", "id", "productId", "product_id", "plu"}
	itemSKUAliases          = []string{"sku", "SKU", "skuId", "sku_id"}
	itemMenuIDAliases       = []string{"menuId", "menu_id", "posId", "pos_id", "menuItemId", "menu_item_id"}
	itemNameAliases         = []string{"name", "itemName", "item_name", "title"}
	itemOriginalNameAliases = []string{"originalName", "original_name", "rawDescription", "raw_description", "description"}
	itemQuantityAliases     = []string{"quantity", "qty", "count", "units"}
	itemUnitPriceAliases    = []string{"unitPrice", "unit_price", "price", "itemPrice", "item_price", "basePrice", "base_price"}
	itemTotalPriceAliases   = []string{"totalPrice", "total_price", "lineTotal", "line_total", "extendedPrice", "extended_price", "subtotal"}
	itemCategoryAliases     = []string{"category", "categoryName", "category_name", "section"}
	itemInstructionsAliases = []string{"specialInstructions", "special_instructions", "instructions", "notes"}

	modifiersAliases   = []string{"modifiers", "options", "add_ons", "addOns", "extras", "toppings"}
	modifierIDAliases  = []string{"modifierId", "modifier_id", "id", "optionId", "option_id"}
	modNameAliases     = []string{"name", "optionName", "option_name", "title", "label"}
	modPriceAliases    = []string{"price", "priceDelta", "price_delta", "amount", "cost"}
	modQuantityAliases = []string{"quantity", "qty", "count"}

	totalsAliases      = []string{"totals", "pricing", "amounts", "money"}
	subtotalAliases    = []string{"subtotal", "subTotal", "sub_total"}
	taxAliases         = []string{"tax", "taxAmount", "tax_amount", "salesTax", "sales_tax"}
	tipAliases         = []string{"tip", "gratuity", "tipAmount", "tip_amount"}
	discountAliases    = []string{"discount", "discountAmount", "discount_amount", "promoDiscount"}
	deliveryFeeAliases = []string{"deliveryFee", "delivery_fee", "deliveryCharge", "delivery_charge", "serviceFee", "service_fee"}
	totalAliases       = []string{"total", "grandTotal", "grand_total", "totalAmount", "total_amount", "amountDue", "amount_due"}

	paymentAliases   = []string{"payment", "paymentInfo", "payment_info", "transaction"}
	payMethodAliases = []string{"method", "paymentMethod", "payment_method", "type"}
	payStatusAliases = []string{"status", "paymentStatus", "payment_status"}
	payTxnAliases    = []string{"transactionId", "transaction_id", "txnId", "txn_id", "reference", "referenceNumber"}
	payAmountAliases = []string{"amount", "amountPaid", "amount_paid", "paid"}
)

// wrapperPaths are the envelope keys webhook providers commonly nest the
// real order under. Evaluated in order; ties keep the earlier candidate.
var wrapperPaths = []string{"data", "order", "event.data", "payload", "body"}

// orderishKeys score how order-like an object is: one point per present
// key. An inner wrapper candidate only replaces the outer object when it
// scores strictly higher.
var orderishKeys = []string{
	"orderId", "order_id", "orderNumber", "externalOrderId",
	"customer", "customerInfo",
	"items", "orderItems", "order_items", "lineItems", "line_items",
	"totals", "total", "subtotal",
	"payment", "paymentInfo",
	"restaurantId", "restaurant_id", "orderType", "order_type",
}
