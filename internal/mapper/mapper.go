// Package mapper converts arbitrarily-shaped upstream order payloads into
// the canonical model.Order. It is a pure transform: absent or invalid
// fields degrade to documented defaults, never to errors.
package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/model"
)

// Trace records provenance of one mapping run: which envelope path the
// order was extracted from and which canonical fields had to be generated.
// It is persisted with the order as raw webhook metadata.
type Trace struct {
	SourcePath string   `json:"sourcePath,omitempty"`
	Generated  []string `json:"generatedFields,omitempty"`
	TopKeys    []string `json:"topLevelKeys,omitempty"`
}

// Mapper maps raw decoded JSON values to canonical orders.
type Mapper struct {
	defaultRestaurantID string
	now                 func() time.Time
}

// New creates a Mapper. defaultRestaurantID fills in when no payload
// field resolves a restaurant.
func New(defaultRestaurantID string) *Mapper {
	return &Mapper{defaultRestaurantID: defaultRestaurantID, now: time.Now}
}

// Map normalizes raw into a canonical order. Non-object input degrades to
// an all-defaults order.
func (m *Mapper) Map(raw any) (model.Order, Trace) {
	trace := Trace{}

	obj, _ := raw.(map[string]any)
	if obj == nil {
		obj = map[string]any{}
	}
	for k := range obj {
		trace.TopKeys = append(trace.TopKeys, k)
	}

	// Unwrap webhook envelopes: score the outer object and every wrapper
	// candidate; a strictly higher-scoring inner object becomes the order.
	obj, trace.SourcePath = unwrap(obj)

	now := m.now().UTC()
	o := model.Order{
		Status:    enum.OrderStatusReceived,
		OrderTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.OrderID = str(obj, orderIDAliases)
	if o.OrderID == "" {
		o.OrderID = fmt.Sprintf("ORD-%d", now.UnixMilli())
		trace.Generated = append(trace.Generated, "orderId")
	}
	o.ExternalOrderID = str(obj, externalOrderIDAliases)
	if o.ExternalOrderID == "" {
		o.ExternalOrderID = o.OrderID
		trace.Generated = append(trace.Generated, "externalOrderId")
	}
	o.RestaurantID = str(obj, restaurantIDAliases)
	if o.RestaurantID == "" {
		o.RestaurantID = m.defaultRestaurantID
		trace.Generated = append(trace.Generated, "restaurantId")
	}

	o.OrderType = normalizeOrderType(str(obj, orderTypeAliases))
	if t, ok := tim(obj, orderTimeAliases); ok {
		o.OrderTime = t
	}
	if t, ok := tim(obj, requestedTimeAliases); ok {
		o.RequestedTime = &t
	}
	o.Notes = str(obj, notesAliases)
	if s := normalizeStatus(str(obj, statusAliases)); s != "" {
		o.Status = s
	}
	o.Source = str(obj, sourceAliases)

	o.Customer = m.mapCustomer(obj)
	o.Items = m.mapItems(obj)
	o.Totals = mapTotals(obj)
	o.Payment = mapPayment(obj)

	return o, trace
}

func (m *Mapper) mapCustomer(obj map[string]any) model.Customer {
	c := model.Customer{Name: "Unknown Customer", Phone: "N/A"}

	cust, _ := firstOf(obj, customerAliases).(map[string]any)
	if cust == nil {
		// Some POS exports flatten customer fields onto the order itself.
		cust = obj
	}
	if v := str(cust, customerNameAliases); v != "" {
		c.Name = v
	}
	if v := str(cust, customerPhoneAliases); v != "" {
		c.Phone = v
	}
	c.Email = str(cust, customerEmailAliases)

	switch addr := firstOf(cust, addressAliases).(type) {
	case string:
		if addr != "" {
			c.Address = &model.Address{Line1: addr}
		}
	case map[string]any:
		a := model.Address{
			Line1: str(addr, addressLine1Aliases),
			Line2: str(addr, addressLine2Aliases),
			City:  str(addr, addressCityAliases),
			State: str(addr, addressStateAliases),
			Zip:   str(addr, addressZipAliases),
		}
		if a != (model.Address{}) {
			c.Address = &a
		}
	}
	return c
}

func (m *Mapper) mapItems(obj map[string]any) []model.OrderItem {
	raw, _ := firstOf(obj, itemsAliases).([]any)
	items := make([]model.OrderItem, 0, len(raw))
	for _, el := range raw {
		it, _ := el.(map[string]any)
		if it == nil {
			continue
		}
		item := model.OrderItem{
			ItemID:              str(it, itemIDAliases),
			SKU:                 str(it, itemSKUAliases),
			MenuID:              str(it, itemMenuIDAliases),
			Name:                str(it, itemNameAliases),
			OriginalName:        str(it, itemOriginalNameAliases),
			Quantity:            integer(it, itemQuantityAliases, 1),
			UnitPrice:           money(it, itemUnitPriceAliases, 0),
			UnitPriceSet:        firstOf(it, itemUnitPriceAliases) != nil,
			TotalPrice:          money(it, itemTotalPriceAliases, 0),
			Category:            str(it, itemCategoryAliases),
			SpecialInstructions: str(it, itemInstructionsAliases),
			Modifiers:           mapModifiers(it),
		}
		if item.Name == "" {
			item.Name = "Unknown Item"
		}
		if item.ItemID == "" {
			item.ItemID = item.CatalogKey()
		}
		items = append(items, item)
	}
	return items
}

func mapModifiers(item map[string]any) []model.Modifier {
	raw, _ := firstOf(item, modifiersAliases).([]any)
	mods := make([]model.Modifier, 0, len(raw))
	for _, el := range raw {
		mo, _ := el.(map[string]any)
		if mo == nil {
			continue
		}
		mod := model.Modifier{
			ModifierID: str(mo, modifierIDAliases),
			Name:       str(mo, modNameAliases),
			Price:      money(mo, modPriceAliases, 0),
			Quantity:   integer(mo, modQuantityAliases, 1),
		}
		if mod.Name == "" {
			mod.Name = "Unknown Modifier"
		}
		mods = append(mods, mod)
	}
	return mods
}

func mapTotals(obj map[string]any) model.Totals {
	// Prefer a nested totals object; fall back to flat top-level fields
	// (legacy POS exports put subtotal/tax/total on the order itself).
	scope := obj
	if t, ok := firstOf(obj, totalsAliases).(map[string]any); ok {
		scope = merged(t, obj)
	}
	return model.Totals{
		Subtotal:    money(scope, subtotalAliases, 0),
		Tax:         money(scope, taxAliases, 0),
		Tip:         money(scope, tipAliases, 0),
		Discount:    money(scope, discountAliases, 0),
		DeliveryFee: money(scope, deliveryFeeAliases, 0),
		Total:       money(scope, totalAliases, 0),
	}
}

func mapPayment(obj map[string]any) model.Payment {
	p := model.Payment{Status: enum.PaymentStatusPending}
	pay, _ := firstOf(obj, paymentAliases).(map[string]any)
	if pay == nil {
		return p
	}
	p.Method = str(pay, payMethodAliases)
	if s := str(pay, payStatusAliases); s != "" {
		p.Status = strings.ToLower(s)
	}
	p.TransactionID = str(pay, payTxnAliases)
	p.Amount = money(pay, payAmountAliases, 0)
	return p
}

// --- envelope unwrapping ---

func unwrap(obj map[string]any) (map[string]any, string) {
	best := obj
	bestPath := ""
	bestScore := orderScore(obj)
	for _, path := range wrapperPaths {
		inner, ok := lookup(obj, path).(map[string]any)
		if !ok {
			continue
		}
		if s := orderScore(inner); s > bestScore {
			best, bestPath, bestScore = inner, path, s
		}
	}
	return best, bestPath
}

func orderScore(obj map[string]any) int {
	score := 0
	for _, k := range orderishKeys {
		if v, ok := obj[k]; ok && v != nil {
			score++
		}
	}
	return score
}

// --- generic resolver ---

// lookup walks a dotted alias path through nested objects.
func lookup(obj map[string]any, path string) any {
	cur := any(obj)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// firstOf returns the first present, non-null, non-empty alias value.
func firstOf(obj map[string]any, aliases []string) any {
	for _, a := range aliases {
		v := lookup(obj, a)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func str(obj map[string]any, aliases []string) string {
	switch v := firstOf(obj, aliases).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool, int, int64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func integer(obj map[string]any, aliases []string, def int) int {
	switch v := firstOf(obj, aliases).(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func money(obj map[string]any, aliases []string, def float64) float64 {
	switch v := firstOf(obj, aliases).(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case int:
		return float64(v)
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(v, "$"))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

func tim(obj map[string]any, aliases []string) (time.Time, bool) {
	switch v := firstOf(obj, aliases).(type) {
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		// Unix seconds vs milliseconds, split on magnitude.
		if v > 1e12 {
			return time.UnixMilli(int64(v)).UTC(), true
		}
		if v > 0 {
			return time.Unix(int64(v), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeStatus accepts only known lifecycle states; anything else
// degrades to the default the same way an unknown order type does.
func normalizeStatus(s string) string {
	switch v := strings.ToLower(s); v {
	case enum.OrderStatusReceived, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return v
	default:
		return ""
	}
}

func normalizeOrderType(s string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", "-"), " ", "-")) {
	case "delivery":
		return enum.OrderTypeDelivery
	case "dine-in", "dinein":
		return enum.OrderTypeDineIn
	case "pickup", "takeaway", "take-out", "takeout", "collection":
		return enum.OrderTypePickup
	default:
		return enum.OrderTypePickup
	}
}

// merged gives primary precedence over fallback without mutating either.
func merged(primary, fallback map[string]any) map[string]any {
	out := make(map[string]any, len(primary)+len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	for k, v := range primary {
		out[k] = v
	}
	return out
}
