// Package scope implements LocalScope, the dynamic-extent root set
// that pins Values and ObjectIds for the duration of a scope so the
// next GC cycle cannot collect them out from under executing code.
//
// Scopes nest within a VM frame and must be released in LIFO order:
// popping one out of order invalidates the root discipline and is a
// programming error, enforced here by Stack.
package scope

import (
	"fmt"

	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// LocalScope pins a set of Values as GC roots. Anything placed into a
// scope survives every collection until the scope itself is popped.
type LocalScope struct {
	id     int
	pinned []value.Value
}

// Root pins v in this scope and returns v unchanged, so calls can be
// chained at the allocation site: `x := scope.Root(heap.Alloc(...))`.
func (s *LocalScope) Root(v value.Value) value.Value {
	s.pinned = append(s.pinned, v)
	return v
}

// TraceRoots marks every Value pinned in this scope. It implements
// heap.RootSet.
func (s *LocalScope) TraceRoots(t *heap.Tracer) {
	for _, v := range s.pinned {
		t.MarkValue(v)
	}
}

// Stack is a thread-of-control-local stack of LocalScopes. A VM owns
// exactly one Stack for the frames it is currently executing.
type Stack struct {
	scopes []*LocalScope
	nextID int
}

// Push opens a new, empty LocalScope as the innermost scope.
func (s *Stack) Push() *LocalScope {
	sc := &LocalScope{id: s.nextID}
	s.nextID++
	s.scopes = append(s.scopes, sc)
	return sc
}

// Pop closes sc, which must be the innermost currently-open scope.
// Popping anything else is a programming error (the root discipline
// is LIFO by construction) and panics rather than silently corrupting
// the root set.
func (s *Stack) Pop(sc *LocalScope) {
	n := len(s.scopes)
	if n == 0 || s.scopes[n-1].id != sc.id {
		panic(fmt.Sprintf("scope: Pop out of LIFO order (got scope %d, innermost is %v)", sc.id, s.innermostID()))
	}
	s.scopes = s.scopes[:n-1]
}

func (s *Stack) innermostID() any {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1].id
}

// TraceRoots marks every Value pinned in every currently open scope.
// It implements heap.RootSet so the VM can include the whole scope
// stack in a single Collect() call.
func (s *Stack) TraceRoots(t *heap.Tracer) {
	for _, sc := range s.scopes {
		sc.TraceRoots(t)
	}
}
