package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

type blob struct{}

func (*blob) Trace(*heap.Tracer) {}

func TestScopeRootsSurviveCollection(t *testing.T) {
	h := heap.New()
	var st Stack

	sc := st.Push()
	pinned := sc.Root(value.Object(h.Alloc(&blob{})))
	loose := h.Alloc(&blob{})

	h.Collect(&st)

	assert.True(t, h.Live(pinned.AsObjectId()), "scoped value must survive")
	assert.False(t, h.Live(loose), "unscoped value must be collected")

	st.Pop(sc)
	h.Collect(&st)
	assert.False(t, h.Live(pinned.AsObjectId()), "popping the scope releases its roots")
}

func TestNestedScopesReleaseInnermostFirst(t *testing.T) {
	h := heap.New()
	var st Stack

	outer := st.Push()
	outerVal := outer.Root(value.Object(h.Alloc(&blob{})))
	inner := st.Push()
	innerVal := inner.Root(value.Object(h.Alloc(&blob{})))

	st.Pop(inner)
	h.Collect(&st)

	assert.True(t, h.Live(outerVal.AsObjectId()))
	assert.False(t, h.Live(innerVal.AsObjectId()))

	st.Pop(outer)
}

func TestPopOutOfOrderPanics(t *testing.T) {
	var st Stack
	outer := st.Push()
	inner := st.Push()

	require.Panics(t, func() { st.Pop(outer) })

	// The LIFO order still works after the failed pop.
	st.Pop(inner)
	st.Pop(outer)
}
