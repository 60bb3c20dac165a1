/**
 * @description
 * This file implements the commission extractor: a pure function that probes
 * a webhook payload for the commission amount. Different webhook sources put
 * the figure in different places, so a fixed, ordered list of candidate field
 * paths is tried and the first non-negative numeric value wins.
 *
 * An unextractable commission is not an error. Webhook processing must not
 * fail merely because the field is missing, so the extractor returns zero and
 * logs a warning instead.
 */

package app

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// commissionFieldPaths are probed in order. Flat keys plus one level of
// dot-notation nesting.
var commissionFieldPaths = []string{
	"commission",
	"my_commission",
	"Commissions.my_commission",
	"Commissions.charge_amount",
	"commission_amount",
}

// ExtractCommission returns the commission amount carried by a webhook
// payload, or zero when no candidate field resolves to a non-negative
// number. Negative values are treated as absent. Deterministic: the same
// payload always yields the same result.
func ExtractCommission(payload map[string]interface{}) decimal.Decimal {
	for _, path := range commissionFieldPaths {
		value, ok := lookupPath(payload, path)
		if !ok {
			continue
		}
		amount, ok := ToDecimal(value)
		if ok && !amount.IsNegative() {
			return amount
		}
	}

	log.Printf("level=warn component=commission msg=\"commission not found in webhook payload\" probed_paths=%d", len(commissionFieldPaths))
	return decimal.Zero
}

// lookupPath resolves a flat or single-level dotted key against the payload.
func lookupPath(payload map[string]interface{}, path string) (interface{}, bool) {
	current := interface{}(payload)
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ToDecimal coerces the numeric shapes a decoded JSON payload can carry.
// Non-numeric strings and other types are rejected.
func ToDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(trimmed)
		return d, err == nil
	case decimal.Decimal:
		return v, true
	default:
		return decimal.Decimal{}, false
	}
}
