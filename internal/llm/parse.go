package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

var (
	reFence    = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)\\s*```")
	reNumNoise = regexp.MustCompile(`[^\d.\-]`)
)

// StripFences removes markdown code fences and any prose around the JSON object.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !strings.HasPrefix(s, "{") {
		if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
			s = s[i : j+1]
		}
	}
	return strings.TrimSpace(s)
}

// ParseReceipt turns a raw model response into a ReceiptCandidate in two
// phases: missing or falsy fields get fallbacks, then the result is checked
// against ReceiptJSONSchema. Anything the fallbacks cannot repair is a ParseError.
func ParseReceipt(raw string, today time.Time) (ReceiptCandidate, error) {
	body := StripFences(raw)
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ReceiptCandidate{}, common.NewParseError("model response is not valid JSON", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return ReceiptCandidate{}, common.NewParseError(fmt.Sprintf("model response is a JSON %s, want object", jsonType(doc)), nil)
	}

	normalized, defaulted, err := applyFallbacks(obj, today)
	if err != nil {
		return ReceiptCandidate{}, err
	}

	schema, err := compiledReceiptSchema()
	if err != nil {
		return ReceiptCandidate{}, fmt.Errorf("receipt schema: %w", err)
	}
	if err := schema.Validate(normalized); err != nil {
		return ReceiptCandidate{}, common.NewParseError("model response does not match receipt schema", err)
	}

	out, err := toCandidate(normalized)
	if err != nil {
		return ReceiptCandidate{}, common.NewParseError("model response does not match receipt schema", err)
	}
	out.Defaulted = defaulted
	return out, nil
}

func applyFallbacks(in map[string]any, today time.Time) (map[string]any, []string, error) {
	var defaulted []string
	note := func(field string) { defaulted = append(defaulted, field) }

	rawItems, present := in["items"]
	if !present || rawItems == nil {
		return nil, nil, common.NewParseError("model response has no items array", nil)
	}
	list, ok := rawItems.([]any)
	if !ok {
		return nil, nil, common.NewParseError(fmt.Sprintf("items must be an array, got %s", jsonType(rawItems)), nil)
	}

	items := make([]any, 0, len(list))
	sum := decimal.Zero
	for i, raw := range list {
		it, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, common.NewParseError(fmt.Sprintf("items[%d] must be an object, got %s", i, jsonType(raw)), nil)
		}
		prefix := fmt.Sprintf("items[%d].", i)
		price := numberOr(it["price"], "0", func() { note(prefix + "price") })
		if n, ok := price.(json.Number); ok {
			if d, err := decimal.NewFromString(n.String()); err == nil {
				sum = sum.Add(d)
			}
		}
		items = append(items, map[string]any{
			"name":     stringOr(it["name"], constants.UnknownItem, func() { note(prefix + "name") }),
			"price":    price,
			"quantity": wholeQuantity(numberOr(it["quantity"], "1", func() { note(prefix + "quantity") })),
			"category": stringOr(it["category"], constants.Miscellaneous, func() { note(prefix + "category") }),
		})
	}

	out := map[string]any{"items": items}

	if d, ok := normalizeDate(in["date"]); ok {
		out["date"] = d
	} else {
		out["date"] = today.Format("2006-01-02")
		note("date")
	}

	out["totalAmount"] = numberOr(in["totalAmount"], json.Number(sum.String()), func() { note("totalAmount") })

	shop := map[string]any{}
	switch s := in["shop"].(type) {
	case map[string]any:
		shop["name"] = stringOr(s["name"], constants.UnknownShop, func() { note("shop.name") })
		if addr, ok := s["address"].(string); ok && strings.TrimSpace(addr) != "" {
			shop["address"] = strings.TrimSpace(addr)
		}
	case string:
		shop["name"] = stringOr(s, constants.UnknownShop, func() { note("shop.name") })
	default:
		shop["name"] = constants.UnknownShop
		note("shop.name")
	}
	out["shop"] = shop

	return out, defaulted, nil
}

func toCandidate(m map[string]any) (ReceiptCandidate, error) {
	var rc ReceiptCandidate
	date, err := time.ParseInLocation("2006-01-02", m["date"].(string), time.UTC)
	if err != nil {
		return rc, fmt.Errorf("date: %w", err)
	}
	rc.Date = date
	if rc.TotalAmount, err = decimalOf(m["totalAmount"]); err != nil {
		return rc, fmt.Errorf("totalAmount: %w", err)
	}
	rc.TotalAmount = rc.TotalAmount.Round(2)

	shop := m["shop"].(map[string]any)
	rc.Shop.Name = shop["name"].(string)
	if addr, ok := shop["address"].(string); ok {
		rc.Shop.Address = &addr
	}

	for i, raw := range m["items"].([]any) {
		it := raw.(map[string]any)
		price, err := decimalOf(it["price"])
		if err != nil {
			return rc, fmt.Errorf("items[%d].price: %w", i, err)
		}
		qty, err := decimalOf(it["quantity"])
		if err != nil {
			return rc, fmt.Errorf("items[%d].quantity: %w", i, err)
		}
		if qty.LessThan(decimal.NewFromInt(1)) || qty.GreaterThan(decimal.NewFromInt(MaxItemQuantity)) {
			return rc, fmt.Errorf("items[%d].quantity: %s out of range", i, qty)
		}
		rc.Items = append(rc.Items, ItemCandidate{
			Name:     it["name"].(string),
			Price:    price.Round(2),
			Quantity: int(qty.IntPart()),
			Category: it["category"].(string),
		})
	}
	return rc, nil
}

// isFalsy follows the loose truthiness models tend to rely on: null, "", 0 and
// false all count as missing.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return err == nil && d.IsZero()
	case bool:
		return !t
	}
	return false
}

func stringOr(v any, def string, onDefault func()) any {
	if isFalsy(v) {
		onDefault()
		return def
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	// wrong type, left for the schema to reject
	return v
}

// numberOr coerces numeric strings ("$2.50", "1,200.00") before applying the fallback.
func numberOr(v any, def json.Number, onDefault func()) any {
	v = coerceNumber(v)
	if isFalsy(v) {
		onDefault()
		return def
	}
	return v
}

// wholeQuantity rounds a positive fractional quantity (weighed goods, 1.5 kg)
// up to the next whole unit. Anything else is left for the schema.
func wholeQuantity(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || !d.IsPositive() {
		return v
	}
	return json.Number(d.Ceil().String())
}

func coerceNumber(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	cleaned := reNumNoise.ReplaceAllString(s, "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return s
	}
	return json.Number(d.String())
}

func decimalOf(v any) (decimal.Decimal, error) {
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
	return decimal.NewFromString(n.String())
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 January 2006",
}

// normalizeDate accepts the common layouts models emit and renders YYYY-MM-DD.
// Unparseable dates are treated as missing.
func normalizeDate(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
