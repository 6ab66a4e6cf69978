// Package vm implements the bytecode virtual machine: a stack-based
// interpreter that executes internal/bytecode programs against the
// internal/object model and internal/heap tracing GC.
//
// The VM is the final stage in the execution pipeline:
//
//	Source -> lexer -> parser -> AST -> compiler -> bytecode -> VM -> result
//
// Execution state is split in two: VM holds everything shared across
// an entire program run (the heap, the interner, the global object,
// the prototype table), while a thread holds one continuation's value
// stack, frame stack, and try-block stack. Ordinary nested calls reuse
// the calling thread; a generator body runs on its own thread driven
// from a goroutine, so it can suspend at Yield without unwinding the
// Go call stack of whatever called .next().
package vm

import (
	"fmt"

	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/jit"
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/scope"
	"github.com/kristofer/jscore/internal/value"
)

const (
	defaultMaxStackDepth = 8192
	defaultMaxFrameDepth = 1024
)

// HostCallbacks are optional external collaborators installed as VM
// construction parameters: a script `import`/dynamic import resolver
// and a debugger hook for the Debugger opcode. Both are nil (inert)
// unless internal/statics or an embedder wires them.
type HostCallbacks struct {
	StaticImport  func(vm *VM, path string) (value.Value, error)
	DynamicImport func(vm *VM, specifier string) (value.Value, error)
	Debugger      func(vm *VM) error
}

// Config tunes the resource limits exposed to an embedder; the zero
// Config falls back to the engine's original fixed constants. A nil
// JIT engine leaves the interpreter's hot-loop hooks inert.
type Config struct {
	MaxStackDepth int
	MaxFrameDepth int
	Callbacks     HostCallbacks
	JIT           *jit.Engine
}

func (c Config) maxStack() int {
	if c.MaxStackDepth > 0 {
		return c.MaxStackDepth
	}
	return defaultMaxStackDepth
}

func (c Config) maxFrames() int {
	if c.MaxFrameDepth > 0 {
		return c.MaxFrameDepth
	}
	return defaultMaxFrameDepth
}

// Prototypes is the set of built-in prototype objects internal/statics
// wires up at VM construction. Native methods and `instanceof` checks
// consult these directly rather than looking them up by name every time.
type Prototypes struct {
	Object         value.Value
	Function       value.Value
	Array          value.Value
	Error          value.Value
	TypeError      value.Value
	RangeError     value.Value
	ReferenceError value.Value
	SyntaxError    value.Value
	Generator      value.Value
	Iterator       value.Value
}

// VM owns the state shared by every thread of execution in one program
// run: the heap, the interner, the global object, and the prototype
// table. internal/statics populates Protos and Global after New.
type VM struct {
	Heap   *heap.Heap
	It     *interner.Interner
	Protos Prototypes
	Global value.Value // always KindObject, referencing the global OrdObject
	Config Config

	// threads lists every active execution thread for GC rooting. The
	// cooperative scheduling model means only the goroutine currently
	// running script mutates it.
	threads []*thread
}

// New creates a VM with a bare global object (no prototype, no
// built-ins) and default resource limits. Call internal/statics.Install(vm)
// to populate Protos and the global object's built-in bindings before
// running scripts.
func New(h *heap.Heap, it *interner.Interner) *VM {
	return NewWithConfig(h, it, Config{})
}

// NewWithConfig is New with explicit resource limits and host callbacks.
func NewWithConfig(h *heap.Heap, it *interner.Interner, cfg Config) *VM {
	id := h.Alloc(object.NewOrdinary(value.Undefined()))
	return &VM{Heap: h, It: it, Global: value.Object(id), Config: cfg}
}

func (vm *VM) globalObject() object.Object {
	obj, _ := vm.Heap.Get(vm.Global.AsObjectId()).(object.Object)
	return obj
}

// TraceRoots implements heap.RootSet: the global object, the
// prototype table, and every currently active thread's stack, frame
// externals, and scope stack.
func (vm *VM) TraceRoots(t *heap.Tracer) {
	t.MarkValue(vm.Global)
	for _, v := range []value.Value{
		vm.Protos.Object, vm.Protos.Function, vm.Protos.Array, vm.Protos.Error,
		vm.Protos.TypeError, vm.Protos.RangeError, vm.Protos.ReferenceError, vm.Protos.SyntaxError,
		vm.Protos.Generator, vm.Protos.Iterator,
	} {
		t.MarkValue(v)
	}
	for _, th := range vm.threads {
		th.traceRoots(t)
	}
}

// Collect runs one GC cycle over the VM's full root set.
func (vm *VM) Collect() {
	vm.Heap.Collect(vm)
}

func (vm *VM) registerThread(th *thread) {
	vm.threads = append(vm.threads, th)
}

func (vm *VM) unregisterThread(th *thread) {
	for i, t := range vm.threads {
		if t == th {
			vm.threads = append(vm.threads[:i], vm.threads[i+1:]...)
			return
		}
	}
}

// RuntimeError is a thrown script value surfaced as a Go error so it
// can cross native-function and host boundaries without being
// swallowed by handlers expecting a plain error.
type RuntimeError struct {
	Value value.Value
	vm    *VM
}

func (e *RuntimeError) Error() string {
	if e.Value.IsObjectLike() {
		if eo, ok := e.vm.Heap.Get(e.Value.AsObjectId()).(*object.ErrorObject); ok {
			return eo.FormatStack()
		}
	}
	return fmt.Sprintf("uncaught exception: %s", describeValue(e.vm, e.Value))
}

func describeValue(vm *VM, v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return vm.It.Lookup(v.AsStringSymbol())
	case value.KindNumber:
		return value.NumberToString(v.AsNumber())
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	default:
		return "[object]"
	}
}

// throwError allocates an ErrorObject of the given kind/message and
// wraps it in a RuntimeError, the uniform shape every internal runtime
// fault (TypeError on a bad operand, RangeError on stack overflow, ...)
// is raised through.
func (vm *VM) throwError(kind object.ErrorKind, format string, args ...interface{}) error {
	proto := vm.Protos.Error
	switch kind {
	case object.ErrorType:
		proto = vm.Protos.TypeError
	case object.ErrorRange:
		proto = vm.Protos.RangeError
	case object.ErrorReference:
		proto = vm.Protos.ReferenceError
	case object.ErrorSyntax:
		proto = vm.Protos.SyntaxError
	}
	eo := object.NewErrorObject(proto, kind, fmt.Sprintf(format, args...))
	id := vm.Heap.Alloc(eo)
	return &RuntimeError{Value: value.Object(id), vm: vm}
}

// NewError lets internal/statics' native functions raise the same
// typed errors the interpreter itself raises on a runtime fault.
func (vm *VM) NewError(kind object.ErrorKind, format string, args ...interface{}) error {
	return vm.throwError(kind, format, args...)
}

// Invoke implements object.Invoker: calling an accessor getter/setter
// (or any other out-of-band call, e.g. from internal/statics native
// code) runs on a freshly created thread, since the caller may not be
// running inside one of the VM's own threads at all.
func (vm *VM) Invoke(callee value.Value, this value.Value, args []value.Value) (value.Value, error) {
	th := newThread(vm)
	defer vm.unregisterThread(th)
	return th.invoke(callee, this, args, false, value.Undefined())
}

// Run executes entry as the program's top-level frame and returns the
// program's result value.
func (vm *VM) Run(entry *bytecode.FunctionProto) (value.Value, error) {
	th := newThread(vm)
	defer vm.unregisterThread(th)
	fn := object.NewUserFunction(vm.Protos.Function, entry, nil)
	return th.invoke(value.Object(vm.Heap.Alloc(fn)), vm.Global, nil, false, value.Undefined())
}

// --- thread: one continuation's stack/frame/try-block state ---

type frame struct {
	fn        *object.FunctionObject
	ip        int
	sp        int // base index into thread.stack
	this      value.Value
	newTarget value.Value
	isCtor    bool
}

type tryBlock struct {
	catchIP    int
	frameDepth int
	catchSlot  int32
}

type thread struct {
	vm        *VM
	stack     []value.Value
	frames    []frame
	tryBlocks []tryBlock
	scopes    scope.Stack

	// gen is non-nil when this thread is driving a generator body's
	// own goroutine; OpYield consults it to suspend instead of
	// erroring. A plain call thread never sets it.
	gen *object.GenState
}

func newThread(vm *VM) *thread {
	th := &thread{vm: vm, stack: make([]value.Value, 0, 256)}
	vm.registerThread(th)
	return th
}

func (th *thread) traceRoots(t *heap.Tracer) {
	for _, v := range th.stack {
		t.MarkValue(v)
	}
	for _, f := range th.frames {
		t.MarkValue(f.this)
		t.MarkValue(f.newTarget)
		for _, id := range f.fn.Externals {
			t.MarkID(id)
		}
	}
	th.scopes.TraceRoots(t)
}

func (th *thread) push(v value.Value) error {
	if len(th.stack) >= th.vm.Config.maxStack() {
		return th.vm.throwError(object.ErrorRange, "stack overflow")
	}
	th.stack = append(th.stack, v)
	return nil
}

func (th *thread) pop() value.Value {
	n := len(th.stack) - 1
	v := th.stack[n]
	th.stack = th.stack[:n]
	return v
}

func (th *thread) peek() value.Value { return th.stack[len(th.stack)-1] }

func (th *thread) top() *frame { return &th.frames[len(th.frames)-1] }
