package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// ErrorKind is the five-member error taxonomy: a plain Error plus the
// four native subtypes the runtime itself raises (TypeError on a bad
// operand, RangeError on an out-of-range numeric argument, ReferenceError
// on an unresolved identifier, SyntaxError surfaced from a compile-time
// failure reached through eval-like entry points).
type ErrorKind uint8

const (
	ErrorPlain ErrorKind = iota
	ErrorType
	ErrorRange
	ErrorReference
	ErrorSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorType:
		return "TypeError"
	case ErrorRange:
		return "RangeError"
	case ErrorReference:
		return "ReferenceError"
	case ErrorSyntax:
		return "SyntaxError"
	default:
		return "Error"
	}
}

// StackFrame is one entry of an ErrorObject's call stack. The
// interpreter does not record entries; the slice is left for hosts to
// fill.
type StackFrame struct {
	FunctionName string
	IP           int
}

// ErrorObject is the error object kind: message plus a Kind tag and a
// stack trace snapshot, in addition to the ordinary own-property store
// (scripts may attach arbitrary properties to a caught error).
type ErrorObject struct {
	proto value.Value
	props propStore

	Kind    ErrorKind
	Message string
	Stack   []StackFrame
}

func NewErrorObject(proto value.Value, kind ErrorKind, message string) *ErrorObject {
	return &ErrorObject{proto: proto, Kind: kind, Message: message}
}

func (e *ErrorObject) Prototype() value.Value     { return e.proto }
func (e *ErrorObject) SetPrototype(v value.Value) { e.proto = v }

func (e *ErrorObject) GetOwn(key PropertyKey) (PropertyValue, bool) { return e.props.get(key) }
func (e *ErrorObject) SetOwn(key PropertyKey, val PropertyValue)    { e.props.set(key, val) }
func (e *ErrorObject) DeleteOwn(key PropertyKey) bool               { return e.props.delete(key) }
func (e *ErrorObject) OwnKeys() []PropertyKey                       { return e.props.keys() }

func (e *ErrorObject) Trace(t *heap.Tracer) {
	t.MarkValue(e.proto)
	for _, en := range e.props.entries {
		if en.val.Kind == PropStatic {
			t.MarkValue(en.val.Static)
		} else {
			if en.val.Getter != value.NilObjectId {
				t.MarkID(en.val.Getter)
			}
			if en.val.Setter != value.NilObjectId {
				t.MarkID(en.val.Setter)
			}
		}
	}
}

// FormatStack renders "Kind: message" followed by one "at <name>" line
// per Stack entry (the IP is not printed); vm.RuntimeError.Error uses
// it for thrown ErrorObjects.
func (e *ErrorObject) FormatStack() string {
	s := e.Kind.String() + ": " + e.Message
	for _, f := range e.Stack {
		name := f.FunctionName
		if name == "" {
			name = "<anonymous>"
		}
		s += "\n    at " + name
	}
	return s
}
