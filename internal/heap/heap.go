// Package heap implements the tracing, non-moving mark-and-sweep
// garbage collector that backs the object model (internal/object).
//
// Every heap cell is reachable only through a value.ObjectId handle;
// ObjectIds are stable for the cell's whole lifetime (the collector
// never moves objects, only frees them). A cell's payload is any
// Traceable: the collector never looks inside it except through the
// Trace callback, which mirrors the "vtable exports trace" sketch in
// the core's object model.
package heap

import "github.com/kristofer/jscore/internal/value"

// Tracer is handed to a cell's Trace method so it can mark every
// Value, ObjectId, and interner.Symbol it owns. Marking a Value is a
// no-op for primitive kinds and recurses into the heap for
// Object/External kinds.
type Tracer struct {
	h *Heap
}

// MarkValue marks v's referenced cell, if any, and recursively traces
// it the first time it is marked (cycles terminate because re-marking
// an already-marked cell is a no-op).
func (t *Tracer) MarkValue(v value.Value) {
	if v.IsObjectLike() {
		t.MarkID(v.AsObjectId())
	}
}

// MarkID marks the cell behind id directly.
func (t *Tracer) MarkID(id value.ObjectId) {
	t.h.mark(id)
}

// Traceable is implemented by every heap payload kind (OrdObject,
// Array, Function, ...). Trace must call back into the Tracer for
// every Value/ObjectId it owns, directly or through a property
// vector; it must not panic on cells that have already been marked.
type Traceable interface {
	Trace(t *Tracer)
}

// cell is one heap-allocated node. Cells form a conceptual singly
// linked list; here they live in a slice indexed by id for O(1)
// dereference, with freed slots recycled via freeList.
type cell struct {
	marked bool
	alive  bool
	obj    Traceable
}

// Heap owns every live object cell and performs mark-and-sweep
// collection over them.
type Heap struct {
	cells    []cell
	freeList []value.ObjectId
	nextSym  uint64
}

// New creates an empty Heap. Id 0 (value.NilObjectId) is reserved and
// never allocated to a real object.
func New() *Heap {
	h := &Heap{cells: make([]cell, 1, 64)} // index 0 reserved
	return h
}

// Alloc registers a new object and returns its stable handle.
func (h *Heap) Alloc(obj Traceable) value.ObjectId {
	if n := len(h.freeList); n > 0 {
		id := h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		h.cells[id] = cell{alive: true, obj: obj}
		return id
	}
	id := value.ObjectId(len(h.cells))
	h.cells = append(h.cells, cell{alive: true, obj: obj})
	return id
}

// Get dereferences id to its payload. It panics on a dangling or nil
// id, which indicates a rooting bug (a Value escaped its LocalScope).
func (h *Heap) Get(id value.ObjectId) Traceable {
	c := &h.cells[id]
	if !c.alive {
		panic("heap: dereferenced a freed object id")
	}
	return c.obj
}

// Live reports whether id currently refers to a live cell, without
// panicking. Used by defensive checks and tests.
func (h *Heap) Live(id value.ObjectId) bool {
	return id != value.NilObjectId && int(id) < len(h.cells) && h.cells[id].alive
}

// Len reports the number of live cells (the "heap length" referenced
// by the GC-reachability testable property).
func (h *Heap) Len() int {
	n := 0
	for i := 1; i < len(h.cells); i++ {
		if h.cells[i].alive {
			n++
		}
	}
	return n
}

// NextSymbolID returns a fresh, monotonically increasing id for
// allocating a runtime SymbolValue (see internal/value).
func (h *Heap) NextSymbolID() uint64 {
	h.nextSym++
	return h.nextSym
}

func (h *Heap) mark(id value.ObjectId) {
	if id == value.NilObjectId || int(id) >= len(h.cells) {
		return
	}
	c := &h.cells[id]
	if !c.alive || c.marked {
		return
	}
	c.marked = true
	c.obj.Trace(&Tracer{h: h})
}

// RootSet is anything that can enumerate its own roots into a Tracer;
// the VM, the frame stack, and every live LocalScope implement it.
type RootSet interface {
	TraceRoots(t *Tracer)
}

// Collect runs one mark-and-sweep cycle: clear all marks, trace every
// root, then free every cell that ended up unmarked.
func (h *Heap) Collect(roots ...RootSet) {
	for i := range h.cells {
		h.cells[i].marked = false
	}

	tr := &Tracer{h: h}
	for _, r := range roots {
		r.TraceRoots(tr)
	}

	for i := 1; i < len(h.cells); i++ {
		c := &h.cells[i]
		if !c.alive {
			continue
		}
		if !c.marked {
			c.alive = false
			c.obj = nil
			h.freeList = append(h.freeList, value.ObjectId(i))
		}
	}
}
