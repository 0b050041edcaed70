package pricing

import (
	"math"
	"testing"
)

// Simple sanity check: ATM call should have non-zero value
func TestBlackScholesCallBasic(t *testing.T) {
	price := 100.0
	strike := 100.0
	expiry := 30.0 / 365.0
	rate := 0.05
	iv := 0.20

	call := BlackScholesPrice(true, price, strike, expiry, rate, iv)
	if call <= 0 {
		t.Fatalf("expected call price > 0, got %f", call)
	}
}

func TestBlackScholesKnownValues(t *testing.T) {
	tests := []struct {
		isCall bool
		want   float64
	}{
		{true, 12.335998930368717},
		{false, 7.458941380440123},
	}

	for _, test := range tests {
		got := BlackScholesPrice(test.isCall, 100, 100, 1, 0.05, 0.25)
		if math.Abs(got-test.want) > 1e-9 {
			t.Fatalf("isCall=%v: expected %f, got %f", test.isCall, test.want, got)
		}
	}
}

// Put-call parity check
func TestBlackScholesPutCallParity(t *testing.T) {
	price := 100.0
	strike := 100.0
	expiry := 45.0 / 365.0
	rate := 0.03
	iv := 0.25

	call := BlackScholesPrice(true, price, strike, expiry, rate, iv)
	put := BlackScholesPrice(false, price, strike, expiry, rate, iv)

	lhs := call - put
	rhs := price - strike*math.Exp(-rate*expiry)

	if math.Abs(lhs-rhs) > 1e-6 {
		t.Fatalf("put-call parity violated: LHS=%f RHS=%f", lhs, rhs)
	}
}

func TestBlackScholesDegenerateInputsReturnIntrinsic(t *testing.T) {
	tests := []struct {
		name   string
		isCall bool
		S, K   float64
		T, vol float64
		want   float64
	}{
		{"expired call", true, 110, 100, 0, 0.2, 10},
		{"expired put", false, 90, 100, 0, 0.2, 10},
		{"zero vol put otm", false, 110, 100, 1, 0, 0},
		{"zero vol call itm", true, 110, 100, 1, 0, 10},
	}

	for _, test := range tests {
		got := BlackScholesPrice(test.isCall, test.S, test.K, test.T, 0.05, test.vol)
		if got != test.want {
			t.Fatalf("%s: expected %f, got %f", test.name, test.want, got)
		}
	}
}
