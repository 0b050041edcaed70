package engine

import (
	"errors"
	"testing"
)

const asOfPrice = 581.39

func TestResolveStrike(t *testing.T) {
	tests := []struct {
		expr     string
		step     float64
		expected float64
	}{
		{"ATM", 1, 581.0},
		{"atm", 0, 581.39},
		{"ATM:+10", 1, 591.0},
		{"ATM:-20", 1, 561.0},
		{"ATM:+10%", 1, 640.0},
		{"ATM:-20%", 1, 465.0},
		{"ATM:+10%", 5, 640.0},
		{"ATM", 5, 580.0},
		{"ABS:600", 1, 600.0},
		{" 595.5 ", 1, 595.5},
		{"{SPOT}*0.9", 1, 523.0},
		{"{spot} + 2*{STEP}", 5, 590.0},
		{"{SPOT}", 0, 581.39},
	}

	for _, test := range tests {
		actual, err := ResolveStrike(test.expr, asOfPrice, test.step)
		if err != nil {
			t.Fatalf("Failed to resolve strike: %v", err)
		}
		if actual != test.expected {
			t.Fatalf("For strike expression {%s} step %v, expected %f, got %f", test.expr, test.step, test.expected, actual)
		}
	}
}

func TestResolveStrike_Invalid(t *testing.T) {
	for _, expr := range []string{"", "OTM", "ATM:ten", "ABS:", "DELTA:30", "{VOL}*2", "{SPOT}*", "{SPOT} > 500"} {
		if _, err := ResolveStrike(expr, asOfPrice, 1); !errors.Is(err, ErrInvalidStrikeExpression) {
			t.Fatalf("For strike expression {%s}, expected ErrInvalidStrikeExpression, got %v", expr, err)
		}
	}
}

func TestResolveATMOffset(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"+10", 591.39},
		{"-20", 561.39},
		{"+10%", 639.53},
		{"-20%", 465.11},
	}

	for _, test := range tests {
		actual, err := resolveATMOffset(test.expr, asOfPrice)
		if err != nil {
			t.Fatalf("Failed to resolve ATM offset: %v", err)
		}
		if actual != test.expected {
			t.Fatalf("For offset {%s}, expected %f, got %f", test.expr, test.expected, actual)
		}
	}
}
