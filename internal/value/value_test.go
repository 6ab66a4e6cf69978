package value

import (
	"math"
	"testing"

	"github.com/kristofer/jscore/internal/interner"
)

func TestStrictEquals(t *testing.T) {
	it := interner.New()
	a := it.Intern("a")
	b := it.Intern("b")

	tests := []struct {
		name string
		x, y Value
		want bool
	}{
		{"same numbers", Number(3), Number(3), true},
		{"different numbers", Number(3), Number(4), false},
		{"NaN is not equal to NaN", Number(math.NaN()), Number(math.NaN()), false},
		{"zero and negative zero", Number(0), Number(math.Copysign(0, -1)), true},
		{"same string symbol", String(a), String(a), true},
		{"different string symbols", String(a), String(b), false},
		{"null equals null", Null(), Null(), true},
		{"undefined equals undefined", Undefined(), Undefined(), true},
		{"null is not undefined", Null(), Undefined(), false},
		{"booleans", Boolean(true), Boolean(true), true},
		{"boolean vs number", Boolean(true), Number(1), false},
		{"same object id", Object(7), Object(7), true},
		{"different object ids", Object(7), Object(8), false},
		{"object vs external with same id", Object(7), External(7), true},
	}
	for _, tt := range tests {
		if got := StrictEquals(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: StrictEquals = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined(), "undefined"},
		{Null(), "object"},
		{Boolean(false), "boolean"},
		{Number(1), "number"},
		{String(0), "string"},
		{Symbol(NewSymbol(1, "d")), "symbol"},
		{Object(3), "object"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeName(); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestNumberToString(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-1, "-1"},
		{3.5, "3.5"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberToString(tt.f); got != tt.want {
			t.Errorf("NumberToString(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestNullishness(t *testing.T) {
	if !Null().IsNullish() || !Undefined().IsNullish() {
		t.Error("null/undefined must be nullish")
	}
	if Number(0).IsNullish() || Boolean(false).IsNullish() {
		t.Error("0/false must not be nullish")
	}
}
