package payment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/velora-shop/velora/app/models"
)

// Alternative metadata keys, in priority order, observed across payload
// generations for the same logical data.
var (
	itemListKeys  = []string{"items", "cart_items", "order_items", "products"}
	productIDKeys = []string{"product_id", "productId", "id", "_id", "product"}

	placeholderName    = "Customer"
	placeholderAddress = "Not provided"
)

// NormalizeChargeMetadata maps any of the historical metadata shapes into
// one canonical OrderInput. The gateway-native customer fields serve as the
// last fallback tier for customer data. Returns ErrMalformedPayload when no
// usable item list survives the fallbacks.
func NormalizeChargeMetadata(raw json.RawMessage, gw GatewayCustomer) (*OrderInput, error) {
	meta := map[string]any{}
	if len(raw) > 0 {
		// A broken metadata blob is treated like an empty one; the item
		// check below decides whether the event is usable.
		_ = json.Unmarshal(raw, &meta)
	}

	items := normalizeItems(meta)
	if len(items) == 0 {
		return nil, ErrMalformedPayload
	}

	in := &OrderInput{
		UserID:       normalizeUserID(meta),
		Customer:     normalizeCustomer(meta, gw),
		Items:        items,
		DeliveryTime: sanitizeText(stringValue(meta, "delivery_time", "deliveryTime")),
		Vendor:       sanitizeText(stringValue(meta, "vendor", "vendor_name")),
	}

	// An unparsable delivery date degrades to "no delivery date"; it never
	// fails the event.
	if ds := stringValue(meta, "delivery_date", "deliveryDate", "date"); ds != "" {
		in.DeliveryDate = ParseDeliveryDate(ds)
	}
	return in, nil
}

func normalizeItems(meta map[string]any) []ItemInput {
	var rawItems []any
	for _, key := range itemListKeys {
		if arr, ok := meta[key].([]any); ok && len(arr) > 0 {
			rawItems = arr
			break
		}
	}

	items := make([]ItemInput, 0, len(rawItems))
	for _, entry := range rawItems {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		item := ItemInput{
			ProductID: normalizeProductID(obj),
			Name:      sanitizeText(stringValue(obj, "name", "product_name", "title")),
			Pack:      sanitizeText(stringValue(obj, "pack", "pack_size", "variant", "size")),
			UnitPrice: moneyValue(obj, "price", "unit_price", "amount"),
			Quantity:  intValue(obj, "quantity", "qty", "count"),
			ImageURL:  sanitizeText(stringValue(obj, "image", "image_url", "img")),
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	return items
}

// normalizeProductID unwraps the product reference, which may be a plain
// scalar or wrapped in an envelope object under any of the known keys.
func normalizeProductID(obj map[string]any) string {
	for _, key := range productIDKeys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if s := sanitizeText(id); s != "" {
				return s
			}
		case float64:
			return strconv.FormatInt(int64(id), 10)
		case map[string]any:
			if s := sanitizeText(stringValue(id, "id", "_id", "product_id")); s != "" {
				return s
			}
			if n := intValue(id, "id", "_id", "product_id"); n > 0 {
				return strconv.Itoa(n)
			}
		}
	}
	return ""
}

// normalizeCustomer merges the three customer field generations: the nested
// object wins, then the flat legacy top-level keys, then the gateway-native
// fields, then literal placeholders.
func normalizeCustomer(meta map[string]any, gw GatewayCustomer) (c models.Customer) {
	nested, _ := meta["customer"].(map[string]any)

	pick := func(nestedKeys, flatKeys []string, gwVal string) string {
		if nested != nil {
			if v := sanitizeText(stringValue(nested, nestedKeys...)); v != "" {
				return v
			}
		}
		if v := sanitizeText(stringValue(meta, flatKeys...)); v != "" {
			return v
		}
		return sanitizeText(gwVal)
	}

	gwName := strings.TrimSpace(gw.FirstName + " " + gw.LastName)

	c.FullName = pick([]string{"full_name", "name"}, []string{"customer_name", "name"}, gwName)
	c.Email = pick([]string{"email"}, []string{"customer_email", "email"}, gw.Email)
	c.Phone = pick([]string{"phone", "phone_number"}, []string{"customer_phone", "phone", "phone_number"}, gw.Phone)
	c.Address = pick([]string{"address", "delivery_address"}, []string{"customer_address", "delivery_address", "address"}, "")
	c.City = pick([]string{"city"}, []string{"customer_city", "city"}, "")
	c.Country = pick([]string{"country"}, []string{"customer_country", "country"}, "")

	if c.FullName == "" {
		c.FullName = placeholderName
	}
	if c.Address == "" {
		c.Address = placeholderAddress
	}
	return c
}

func normalizeUserID(meta map[string]any) *uint {
	for _, key := range []string{"user_id", "userId", "user"} {
		switch v := meta[key].(type) {
		case float64:
			if v > 0 {
				id := uint(v)
				return &id
			}
		case string:
			if n, err := strconv.ParseUint(sanitizeText(v), 10, 32); err == nil && n > 0 {
				id := uint(n)
				return &id
			}
		case map[string]any:
			if n := intValue(v, "id", "_id"); n > 0 {
				id := uint(n)
				return &id
			}
		}
	}
	return nil // guest order
}

var deliveryDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDeliveryDate accepts the delivery date layouts seen in the wild and
// returns nil for anything unparsable.
func ParseDeliveryDate(s string) *time.Time {
	for _, layout := range deliveryDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t
		}
	}
	return nil
}

// sanitizeText strips stray "null" placeholder text and trims whitespace.
func sanitizeText(s string) string {
	s = strings.ReplaceAll(s, "null", "")
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "undefined") {
		return ""
	}
	return s
}

func stringValue(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func intValue(obj map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// moneyValue reads an advisory amount in minor units. Fractional values are
// rounded; they only ever feed the degraded catalog-miss path.
func moneyValue(obj map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return int64(math.Round(v))
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return int64(math.Round(f))
			}
		}
	}
	return 0
}
