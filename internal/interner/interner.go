// Package interner interns string identifiers to small integer symbols.
//
// Every identifier, property name, and string literal the front end
// produces is interned exactly once. Comparing two symbols is then a
// single integer comparison instead of a byte-by-byte string compare,
// which is what lets the object model's property lookup (see
// internal/object) stay cheap.
//
// A fixed prefix of the symbol space is reserved at construction time
// for keywords and well-known property names (length, prototype,
// constructor, ...). Interning one of those strings returns its
// pre-assigned id and never allocates a new one; the id is found by the
// same hash-map lookup as any other string.
package interner

// Symbol is a 32-bit interned string identifier.
type Symbol uint32

// Preinterned keyword symbols. These occupy symbols 0..len(preinterned)-1,
// assigned in table order below, and are always valid regardless of
// whether a particular Interner instance has seen the corresponding
// source text yet.
const (
	If Symbol = iota
	Else
	Var
	Let
	Const
	Return
	Throw
	Try
	Catch
	Finally
	True
	False
	Null
	Undefined
	Yield
	NewKeyword
	For
	Do
	While
	In
	Instanceof
	Async
	Await
	Delete
	Void
	Typeof
	Continue
	Break
	Import
	Export
	Default
	Debugger
	Of
	Class
	Extends
	Static
	Switch
	Case
	Get
	Set
	Function

	// Well-known property names, also preinterned so the object model
	// never has to hash them.
	Length
	Prototype
	Constructor
	ToString
	ValueOf
	Name
	Message
	Next
	Value
	Done
	Proto // "__proto__"

	numPreinterned
)

var preinterned = [numPreinterned]string{
	If:          "if",
	Else:        "else",
	Var:         "var",
	Let:         "let",
	Const:       "const",
	Return:      "return",
	Throw:       "throw",
	Try:         "try",
	Catch:       "catch",
	Finally:     "finally",
	True:        "true",
	False:       "false",
	Null:        "null",
	Undefined:   "undefined",
	Yield:       "yield",
	NewKeyword:  "new",
	For:         "for",
	Do:          "do",
	While:       "while",
	In:          "in",
	Instanceof:  "instanceof",
	Async:       "async",
	Await:       "await",
	Delete:      "delete",
	Void:        "void",
	Typeof:      "typeof",
	Continue:    "continue",
	Break:       "break",
	Import:      "import",
	Export:      "export",
	Default:     "default",
	Debugger:    "debugger",
	Of:          "of",
	Class:       "class",
	Extends:     "extends",
	Static:      "static",
	Switch:      "switch",
	Case:        "case",
	Get:         "get",
	Set:         "set",
	Function:    "function",
	Length:      "length",
	Prototype:   "prototype",
	Constructor: "constructor",
	ToString:    "toString",
	ValueOf:     "valueOf",
	Name:        "name",
	Message:     "message",
	Next:        "next",
	Value:       "value",
	Done:        "done",
	Proto:       "__proto__",
}

// Interner maps strings to Symbols and back. The zero value is not
// usable; construct one with New.
type Interner struct {
	byString map[string]Symbol
	byID     []string
}

// New creates an Interner with the preinterned prefix already populated.
func New() *Interner {
	it := &Interner{
		byString: make(map[string]Symbol, numPreinterned*2),
		byID:     make([]string, numPreinterned, numPreinterned*2),
	}
	for sym, s := range preinterned {
		it.byString[s] = Symbol(sym)
		it.byID[sym] = s
	}
	return it
}

// Intern returns the Symbol for s, assigning a fresh one if s has not
// been seen before. Interning a preinterned string never allocates a
// new id or touches the hash map's write path.
func (it *Interner) Intern(s string) Symbol {
	if sym, ok := it.byString[s]; ok {
		return sym
	}
	sym := Symbol(len(it.byID))
	it.byID = append(it.byID, s)
	it.byString[s] = sym
	return sym
}

// Lookup returns the string behind a Symbol. It panics if sym was
// never produced by this Interner (a programming error: Symbols are
// not portable across Interner instances).
func (it *Interner) Lookup(sym Symbol) string {
	return it.byID[sym]
}

// Resolve is the non-panicking counterpart of Lookup.
func (it *Interner) Resolve(sym Symbol) (string, bool) {
	if int(sym) < 0 || int(sym) >= len(it.byID) {
		return "", false
	}
	return it.byID[sym], true
}

// Len reports how many distinct symbols have been interned, including
// the preinterned prefix.
func (it *Interner) Len() int {
	return len(it.byID)
}
