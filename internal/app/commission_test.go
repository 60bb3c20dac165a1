package app

import (
	"testing"
)

func TestExtractCommission_FlatField(t *testing.T) {
	payload := map[string]interface{}{"commission": 12.5}

	got := ExtractCommission(payload)
	if !got.Equal(dec("12.5")) {
		t.Fatalf("expected 12.5, got %s", got)
	}
}

func TestExtractCommission_NestedField(t *testing.T) {
	payload := map[string]interface{}{
		"Commissions": map[string]interface{}{
			"my_commission": "47.30",
		},
	}

	got := ExtractCommission(payload)
	if !got.Equal(dec("47.30")) {
		t.Fatalf("expected 47.30, got %s", got)
	}
}

func TestExtractCommission_HonorsPathOrder(t *testing.T) {
	payload := map[string]interface{}{
		"commission":        float64(10),
		"my_commission":     float64(20),
		"commission_amount": float64(30),
	}

	got := ExtractCommission(payload)
	if !got.Equal(dec("10")) {
		t.Fatalf("expected the first candidate path to win with 10, got %s", got)
	}
}

func TestExtractCommission_SkipsNegativeAndNonNumericCandidates(t *testing.T) {
	payload := map[string]interface{}{
		"commission":    float64(-5),
		"my_commission": "not a number",
		"Commissions": map[string]interface{}{
			"charge_amount": "8.80",
		},
	}

	got := ExtractCommission(payload)
	if !got.Equal(dec("8.80")) {
		t.Fatalf("expected fall-through to 8.80, got %s", got)
	}
}

func TestExtractCommission_MissingFieldYieldsZero(t *testing.T) {
	payload := map[string]interface{}{"orderId": "ord-1", "amount": 100.0}

	got := ExtractCommission(payload)
	if !got.IsZero() {
		t.Fatalf("expected zero for a payload without commission fields, got %s", got)
	}
}

func TestExtractCommission_IsDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"commission": "19.99",
		"Commissions": map[string]interface{}{
			"my_commission": "1.00",
		},
	}

	first := ExtractCommission(payload)
	for i := 0; i < 50; i++ {
		if got := ExtractCommission(payload); !got.Equal(first) {
			t.Fatalf("expected stable extraction, got %s then %s", first, got)
		}
	}
}

func TestToDecimal_CoercesNumericShapes(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"float64", 3.5, "3.5"},
		{"int", int(7), "7"},
		{"int64", int64(9), "9"},
		{"string", " 10.25 ", "10.25"},
		{"decimal", dec("0.01"), "0.01"},
	}

	for _, tc := range cases {
		got, ok := ToDecimal(tc.value)
		if !ok {
			t.Fatalf("%s: expected coercion to succeed", tc.name)
		}
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestToDecimal_RejectsNonNumericShapes(t *testing.T) {
	for _, value := range []interface{}{nil, true, "", "  ", "R$ 10", map[string]interface{}{}, []interface{}{1}} {
		if _, ok := ToDecimal(value); ok {
			t.Fatalf("expected coercion of %#v to fail", value)
		}
	}
}

func TestExtractCommission_DoesNotMutatePayload(t *testing.T) {
	payload := map[string]interface{}{
		"commission": "5.00",
		"amount":     float64(100),
	}

	_ = ExtractCommission(payload)

	if len(payload) != 2 {
		t.Fatalf("expected payload untouched, got %d keys", len(payload))
	}
	if payload["commission"] != "5.00" {
		t.Fatalf("expected the commission field untouched, got %v", payload["commission"])
	}
}
