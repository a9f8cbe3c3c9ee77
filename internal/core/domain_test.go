package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestAmountUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`12.5`, 12.5, true},
		{`"75.5"`, 75.5, true},
		{`" 10 "`, 10, true},
		{`""`, 0, true},
		{`-3`, -3, true},
		{`"abc"`, 0, false},
		{`"$12"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
		{`{"v":1}`, 0, false},
		{`[1]`, 0, false},
	}
	for _, tc := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(tc.in), &a); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if a.Valid() != tc.valid {
			t.Fatalf("%s: valid=%v, want %v", tc.in, a.Valid(), tc.valid)
		}
		if tc.valid && a.Float64() != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.in, a.Float64(), tc.want)
		}
	}
}

func TestAmountHelpers(t *testing.T) {
	if got := Amount(math.Inf(1)).OrZero(); got != 0 {
		t.Fatalf("OrZero(+Inf) = %v", got)
	}
	if got := Amount(-4).OrZero(); got != -4 {
		t.Fatalf("OrZero(-4) = %v", got)
	}
	if got := Amount(-4).Positive(); got != 0 {
		t.Fatalf("Positive(-4) = %v", got)
	}
	if got := InvalidAmount().Positive(); got != 0 {
		t.Fatalf("Positive(NaN) = %v", got)
	}
}

func TestTransactionJSONTolerant(t *testing.T) {
	var txs []Transaction
	doc := `[{"customerName":"Mark","date":"2024-01-05","amount":"oops"},{"date":12,"amount":null,"extra":true}]`
	if err := json.Unmarshal([]byte(doc), &txs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 2 || txs[0].Amount.Valid() || txs[1].Amount.Valid() {
		t.Fatalf("unexpected decode result: %+v", txs)
	}

	out, err := json.Marshal(txs[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"customerName":"Mark","date":"2024-01-05","amount":null}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}
