package interner

import "testing"

func TestPreinternedPrefix(t *testing.T) {
	it := New()

	tests := []struct {
		s    string
		want Symbol
	}{
		{"if", If},
		{"function", Function},
		{"length", Length},
		{"prototype", Prototype},
		{"constructor", Constructor},
		{"toString", ToString},
		{"__proto__", Proto},
	}
	for _, tt := range tests {
		if got := it.Intern(tt.s); got != tt.want {
			t.Errorf("Intern(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestPreinternedNeverAllocates(t *testing.T) {
	it := New()
	before := it.Len()
	for sym := Symbol(0); sym < numPreinterned; sym++ {
		it.Intern(preinterned[sym])
	}
	if it.Len() != before {
		t.Errorf("interning preinterned strings grew the table from %d to %d", before, it.Len())
	}
}

func TestInternIdempotent(t *testing.T) {
	it := New()
	a := it.Intern("someUserName")
	b := it.Intern("someUserName")
	if a != b {
		t.Errorf("Intern not idempotent: %d != %d", a, b)
	}
	if a < numPreinterned {
		t.Errorf("user symbol %d landed inside the preinterned prefix", a)
	}
}

func TestLookupRoundTrip(t *testing.T) {
	it := New()
	names := []string{"x", "y", "averyLongIdentifierName", "漢字"}
	for _, n := range names {
		sym := it.Intern(n)
		if got := it.Lookup(sym); got != n {
			t.Errorf("Lookup(Intern(%q)) = %q", n, got)
		}
	}
}

func TestResolveOutOfRange(t *testing.T) {
	it := New()
	if _, ok := it.Resolve(Symbol(1 << 20)); ok {
		t.Error("Resolve of a never-assigned symbol reported ok")
	}
	if s, ok := it.Resolve(Length); !ok || s != "length" {
		t.Errorf("Resolve(Length) = %q, %v", s, ok)
	}
}
