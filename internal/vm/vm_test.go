package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/compiler"
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/parser"
	"github.com/kristofer/jscore/internal/statics"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// newTestVM builds a fully wired VM the way cmd/jscore does.
func newTestVM(t *testing.T, cfg vm.Config) (*vm.VM, *interner.Interner) {
	t.Helper()
	it := interner.New()
	v := vm.NewWithConfig(heap.New(), it, cfg)
	statics.Install(v)
	return v, it
}

func run(t *testing.T, v *vm.VM, it *interner.Interner, src string) (value.Value, error) {
	t.Helper()
	prog, err := parser.New(src).Parse()
	require.NoError(t, err)
	proto, err := compiler.Compile(prog, it)
	require.NoError(t, err)
	return v.Run(proto)
}

func eval(t *testing.T, src string) (value.Value, *vm.VM) {
	t.Helper()
	v, it := newTestVM(t, vm.Config{})
	result, err := run(t, v, it, src)
	require.NoError(t, err, "source: %s", src)
	return result, v
}

func evalErr(t *testing.T, src string) (*vm.RuntimeError, *vm.VM) {
	t.Helper()
	v, it := newTestVM(t, vm.Config{})
	_, err := run(t, v, it, src)
	require.Error(t, err, "source: %s", src)
	re, ok := err.(*vm.RuntimeError)
	require.True(t, ok, "error is %T: %v", err, err)
	return re, v
}

func errorKind(t *testing.T, v *vm.VM, re *vm.RuntimeError) object.ErrorKind {
	t.Helper()
	require.True(t, re.Value.IsObjectLike())
	eo, ok := v.Heap.Get(re.Value.AsObjectId()).(*object.ErrorObject)
	require.True(t, ok, "thrown value is not an ErrorObject")
	return eo.Kind
}

func TestEndToEndScenarios(t *testing.T) {
	numTests := []struct {
		src  string
		want float64
	}{
		{"function add(a,b){return a+b} add(10,7)+1", 18},
		{"function gen(){ yield 1; yield 2; } const g=gen(); g.next().value + g.next().value", 3},
		{"try{ throw {m:42} } catch(e){ e.m }", 42},
		{"const o={}; o.__proto__={x:7}; o.x", 7},
		{"const a=[1,2,3]; a.push(4); a.length", 4},
	}
	for _, tt := range numTests {
		got, _ := eval(t, tt.src)
		require.Equal(t, value.KindNumber, got.Kind(), "source: %s", tt.src)
		assert.Equal(t, tt.want, got.AsNumber(), "source: %s", tt.src)
	}

	got, v := eval(t, "let s=''; for(let i=0;i<3;i++) s+=i; s")
	require.Equal(t, value.KindString, got.Kind())
	assert.Equal(t, "012", v.ToJSString(got))
}

func TestGeneratorScenario(t *testing.T) {
	// The §8 generator syntax without the * marker also parses via
	// function*; exercise the starred form end to end.
	got, _ := eval(t, "function* gen(){ yield 1; yield 2; } const g=gen(); g.next().value + g.next().value")
	assert.Equal(t, 3.0, got.AsNumber())
}

func TestArithmeticAndCoercion(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"2 ** 10", 1024},
		{"7 % 3", 1},
		{"5 | 3", 7},
		{"5 & 3", 1},
		{"5 ^ 3", 6},
		{"1 << 5", 32},
		{"-8 >> 1", -4},
		{"~0", -1},
		{"'3' * '4'", 12},
		{"true + true", 2},
		{"null + 1", 1},
		{"-(-5)", 5},
		{"+'2.5'", 2.5},
	}
	for _, tt := range tests {
		got, _ := eval(t, tt.src)
		assert.Equal(t, tt.want, got.AsNumber(), "source: %s", tt.src)
	}
}

func TestUnsignedRightShift(t *testing.T) {
	got, _ := eval(t, "-1 >>> 0")
	assert.Equal(t, 4294967295.0, got.AsNumber())
	got, _ = eval(t, "-8 >>> 1")
	assert.Equal(t, 2147483644.0, got.AsNumber())
}

func TestStringConcatenation(t *testing.T) {
	got, v := eval(t, "'a' + 1 + true")
	assert.Equal(t, "a1true", v.ToJSString(got))
	got, v = eval(t, "1 + 2 + 'a'")
	assert.Equal(t, "3a", v.ToJSString(got))
}

func TestEqualitySemantics(t *testing.T) {
	boolTests := []struct {
		src  string
		want bool
	}{
		{"1 == true", true},
		{"null == undefined", true},
		{"null == 0", false},
		{"'1' == 1", true},
		{"NaN == NaN", false},
		{"NaN === NaN", false},
		{"1 === 1", true},
		{"'a' === 'a'", true},
		{"1 === '1'", false},
		{"null === undefined", false},
		{"({}) == ({})", false},
	}
	for _, tt := range boolTests {
		got, _ := eval(t, tt.src)
		require.Equal(t, value.KindBoolean, got.Kind(), "source: %s", tt.src)
		assert.Equal(t, tt.want, got.AsBoolean(), "source: %s", tt.src)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"'a' < 'b'", true},
		{"'b' < 'a'", false},
		{"NaN < 1", false},
		{"NaN >= 1", false},
	}
	for _, tt := range tests {
		got, _ := eval(t, tt.src)
		assert.Equal(t, tt.want, got.AsBoolean(), "source: %s", tt.src)
	}
}

func TestShortCircuitEvaluation(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"0 || 2", 2},
		{"1 || 2", 1},
		{"0 && 2", 0},
		{"1 && 2", 2},
		{"null ?? 3", 3},
		{"0 ?? 3", 0},
	}
	for _, tt := range tests {
		got, _ := eval(t, tt.src)
		assert.Equal(t, tt.want, got.AsNumber(), "source: %s", tt.src)
	}

	// The RHS must not evaluate when the LHS decides.
	got, _ := eval(t, "let n = 0; function bump() { n = n + 1; return true; } true || bump(); false && bump(); n")
	assert.Equal(t, 0.0, got.AsNumber())
}

func TestClosuresShareUpvalueCells(t *testing.T) {
	got, _ := eval(t, `
function counter() {
	let n = 0;
	return {
		inc() { n = n + 1; return n; },
		get() { return n; }
	};
}
const c = counter();
c.inc(); c.inc(); c.inc();
c.get()`)
	assert.Equal(t, 3.0, got.AsNumber())
}

func TestNestedCaptureWritesPropagate(t *testing.T) {
	got, _ := eval(t, `
function outer() {
	let x = 1;
	function middle() {
		function inner() { x = x + 10; }
		inner();
	}
	middle();
	return x;
}
outer()`)
	assert.Equal(t, 11.0, got.AsNumber())
}

func TestSiblingClosuresShareOneCell(t *testing.T) {
	got, _ := eval(t, `
function pair() {
	let v = 0;
	const set = function(x) { v = x; };
	const get = function() { return v; };
	set(9);
	return get();
}
pair()`)
	assert.Equal(t, 9.0, got.AsNumber())
}

func TestConstructorCall(t *testing.T) {
	got, _ := eval(t, `
function Point(x, y) { this.x = x; this.y = y; }
Point.prototype.sum = function() { return this.x + this.y; };
const p = new Point(3, 4);
p.sum()`)
	assert.Equal(t, 7.0, got.AsNumber())
}

func TestConstructorReturningObjectWins(t *testing.T) {
	got, _ := eval(t, `
function F() { this.a = 1; return { a: 2 }; }
new F().a`)
	assert.Equal(t, 2.0, got.AsNumber())

	got, _ = eval(t, `
function G() { this.a = 1; return 42; }
new G().a`)
	assert.Equal(t, 1.0, got.AsNumber(), "primitive return is replaced by the bound this")
}

func TestInstanceOf(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"function F() {} new F() instanceof F", true},
		{"function F() {} function G() {} new F() instanceof G", false},
		{"[] instanceof Array", true},
		{"({}) instanceof Array", false},
		{"new TypeError('x') instanceof TypeError", true},
		{"new TypeError('x') instanceof Error", true},
	}
	for _, tt := range tests {
		got, _ := eval(t, tt.src)
		assert.Equal(t, tt.want, got.AsBoolean(), "source: %s", tt.src)
	}
}

func TestTypeof(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"typeof 1", "number"},
		{"typeof 'a'", "string"},
		{"typeof true", "boolean"},
		{"typeof undefined", "undefined"},
		{"typeof null", "object"},
		{"typeof {}", "object"},
		{"typeof function() {}", "function"},
	}
	for _, tt := range tests {
		got, v := eval(t, tt.src)
		assert.Equal(t, tt.want, v.ToJSString(got), "source: %s", tt.src)
	}
}

func TestInOperatorAndDelete(t *testing.T) {
	got, _ := eval(t, "const o = {a: 1}; 'a' in o")
	assert.True(t, got.AsBoolean())

	got, _ = eval(t, "const o = {a: 1}; 'b' in o")
	assert.False(t, got.AsBoolean())

	got, _ = eval(t, "const o = {a: 1}; o.__proto__ = {b: 2}; 'b' in o")
	assert.True(t, got.AsBoolean(), "in walks the prototype chain")

	got, _ = eval(t, "const o = {a: 1}; delete o.a; 'a' in o")
	assert.False(t, got.AsBoolean())
}

func TestTernaryAndSequence(t *testing.T) {
	got, _ := eval(t, "1 ? 2 : 3")
	assert.Equal(t, 2.0, got.AsNumber())
	got, _ = eval(t, "0 ? 2 : 3")
	assert.Equal(t, 3.0, got.AsNumber())
	got, _ = eval(t, "(1, 2, 3)")
	assert.Equal(t, 3.0, got.AsNumber())
}

func TestControlFlowStatements(t *testing.T) {
	got, _ := eval(t, "let n = 0; while (n < 5) { n = n + 1; } n")
	assert.Equal(t, 5.0, got.AsNumber())

	got, _ = eval(t, "let n = 0; do { n = n + 1; } while (n < 3); n")
	assert.Equal(t, 3.0, got.AsNumber())

	got, _ = eval(t, "let s = 0; for (let i = 0; i < 10; i++) { if (i == 5) break; s += i; } s")
	assert.Equal(t, 10.0, got.AsNumber())

	got, _ = eval(t, "let s = 0; for (let i = 0; i < 5; i++) { if (i % 2 == 0) continue; s += i; } s")
	assert.Equal(t, 4.0, got.AsNumber())
}

func TestForOfAndForIn(t *testing.T) {
	got, _ := eval(t, "let s = 0; for (const x of [1, 2, 3]) { s += x; } s")
	assert.Equal(t, 6.0, got.AsNumber())

	got, v := eval(t, "const o = {a: 1, b: 2}; let ks = ''; for (const k in o) { ks += k; } ks")
	assert.Equal(t, "ab", v.ToJSString(got))

	got, _ = eval(t, "function* g() { yield 4; yield 5; } let s = 0; for (const x of g()) { s += x; } s")
	assert.Equal(t, 9.0, got.AsNumber())
}

func TestTryCatchFinally(t *testing.T) {
	got, _ := eval(t, "let log = 0; try { log += 1; } catch (e) { log += 10; } finally { log += 100; } log")
	assert.Equal(t, 101.0, got.AsNumber())

	got, _ = eval(t, "let log = 0; try { throw 1; } catch (e) { log += 10; } finally { log += 100; } log")
	assert.Equal(t, 110.0, got.AsNumber())

	// An exception escaping the catch still runs finally once.
	got, _ = eval(t, `
let log = 0;
try {
	try { throw 1; } catch (e) { log += 1; throw 2; } finally { log += 10; }
} catch (e) { log += 100; }
log`)
	assert.Equal(t, 111.0, got.AsNumber())
}

func TestThrowAfterCaughtTryDoesNotReenterStaleCatch(t *testing.T) {
	// A fresh throw after a completed try/catch must not land in the
	// earlier catch block.
	re, v := evalErr(t, "try { 1; } catch (e) { 2; } throw new TypeError('late');")
	assert.Equal(t, object.ErrorType, errorKind(t, v, re))
}

func TestNestedTryUnwindsAcrossFrames(t *testing.T) {
	got, _ := eval(t, `
function boom() { throw {code: 5}; }
function mid() { boom(); }
let r = 0;
try { mid(); } catch (e) { r = e.code; }
r`)
	assert.Equal(t, 5.0, got.AsNumber())
}

func TestVMKeepsRunningAfterCaughtThrow(t *testing.T) {
	// Frame balance: after an unwind the same VM still executes
	// further calls correctly on a fresh Run.
	v, it := newTestVM(t, vm.Config{})
	_, err := run(t, v, it, "function f() { throw 1; } f()")
	require.Error(t, err)
	got, err := run(t, v, it, "function g(a) { return a * 2; } g(21)")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.AsNumber())
}

func TestUncaughtThrowCarriesValue(t *testing.T) {
	re, v := evalErr(t, "throw {m: 42};")
	require.True(t, re.Value.IsObjectLike())
	o := v.Heap.Get(re.Value.AsObjectId()).(object.Object)
	pv, found := o.GetOwn(object.NameKey(v.It, "m"))
	require.True(t, found)
	assert.Equal(t, 42.0, pv.Static.AsNumber())
}

func TestReferenceErrorOnUndeclaredGlobal(t *testing.T) {
	re, v := evalErr(t, "definitelyNotDefined")
	assert.Equal(t, object.ErrorReference, errorKind(t, v, re))
}

func TestTypeErrorOnCallingNonCallable(t *testing.T) {
	re, v := evalErr(t, "const x = 1; x()")
	assert.Equal(t, object.ErrorType, errorKind(t, v, re))
}

func TestTypeErrorOnNullishPropertyRead(t *testing.T) {
	re, v := evalErr(t, "null.x")
	assert.Equal(t, object.ErrorType, errorKind(t, v, re))
	re, v = evalErr(t, "undefined.x")
	assert.Equal(t, object.ErrorType, errorKind(t, v, re))
}

func TestRangeErrorOnFrameOverflow(t *testing.T) {
	re, v := evalErr(t, "function f() { return f(); } f()")
	assert.Equal(t, object.ErrorRange, errorKind(t, v, re))
}

func TestRangeErrorOnValueStackOverflow(t *testing.T) {
	v, it := newTestVM(t, vm.Config{MaxStackDepth: 64, MaxFrameDepth: 16})
	_, err := run(t, v, it, "function f(n) { return f(n + 1); } f(0)")
	require.Error(t, err)
	re, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, object.ErrorRange, errorKind(t, v, re))
}

func TestStackOverflowIsCatchable(t *testing.T) {
	got, _ := eval(t, `
function f() { return f(); }
let caught = 0;
try { f(); } catch (e) { caught = 1; }
caught`)
	assert.Equal(t, 1.0, got.AsNumber())
}

func TestGeneratorProtocol(t *testing.T) {
	got, _ := eval(t, `
function* g() { yield 1; yield 2; }
const it = g();
const a = it.next();
const b = it.next();
const c = it.next();
(a.done ? 100 : 0) + (b.done ? 10 : 0) + (c.done ? 1 : 0)`)
	assert.Equal(t, 1.0, got.AsNumber(), "only the exhausted call reports done")

	got, _ = eval(t, `
function* g() { const got = yield 1; yield got * 2; }
const it = g();
it.next();
it.next(21).value`)
	assert.Equal(t, 42.0, got.AsNumber(), "next(v) resumes the yield expression with v")
}

func TestGeneratorReturnAndThrow(t *testing.T) {
	got, _ := eval(t, `
function* g() { yield 1; yield 2; }
const it = g();
it.next();
const r = it.return(7);
(r.done ? 100 : 0) + r.value`)
	assert.Equal(t, 107.0, got.AsNumber())

	got, _ = eval(t, `
function* g() {
	try { yield 1; } catch (e) { yield e + 1; }
}
const it = g();
it.next();
it.throw(41).value`)
	assert.Equal(t, 42.0, got.AsNumber(), "throw resumes as a catchable exception inside the body")
}

func TestGeneratorCompletionValue(t *testing.T) {
	got, _ := eval(t, `
function* g() { yield 1; return 9; }
const it = g();
it.next();
const r = it.next();
(r.done ? 100 : 0) + r.value`)
	assert.Equal(t, 109.0, got.AsNumber())
}

func TestBuiltinArrayMethods(t *testing.T) {
	got, _ := eval(t, "const a = [1, 2]; a.push(3); a.pop() + a.length")
	assert.Equal(t, 5.0, got.AsNumber())

	got, v := eval(t, "[1, 2, 3].join('-')")
	assert.Equal(t, "1-2-3", v.ToJSString(got))

	got, v = eval(t, "[1, 2, 3].join()")
	assert.Equal(t, "1,2,3", v.ToJSString(got))
}

func TestBuiltinObjectMethods(t *testing.T) {
	got, _ := eval(t, "const o = {a: 1}; o.hasOwnProperty('a')")
	assert.True(t, got.AsBoolean())
	got, _ = eval(t, "const o = {a: 1}; o.__proto__ = {b: 2}; o.hasOwnProperty('b')")
	assert.False(t, got.AsBoolean(), "hasOwnProperty ignores the prototype chain")
}

func TestBuiltinErrorObjects(t *testing.T) {
	got, v := eval(t, "new Error('boom').message")
	assert.Equal(t, "boom", v.ToJSString(got))

	got, v = eval(t, "new RangeError('r').name")
	assert.Equal(t, "RangeError", v.ToJSString(got))

	got, v = eval(t, "new TypeError('t').toString()")
	assert.Equal(t, "TypeError: t", v.ToJSString(got))
}

func TestBoxedPrimitives(t *testing.T) {
	got, _ := eval(t, "Number('42')")
	assert.Equal(t, 42.0, got.AsNumber())

	got, v := eval(t, "String(7)")
	assert.Equal(t, "7", v.ToJSString(got))

	got, _ = eval(t, "Boolean(0)")
	assert.False(t, got.AsBoolean())

	got, v = eval(t, "typeof new Number(5)")
	assert.Equal(t, "object", v.ToJSString(got))

	got, _ = eval(t, "new Number(5).valueOf()")
	assert.Equal(t, 5.0, got.AsNumber())

	got, _ = eval(t, "new Number(5) + 1")
	assert.Equal(t, 6.0, got.AsNumber(), "a box unwraps through ToPrimitive")

	got, v = eval(t, "new String('ab').toString()")
	assert.Equal(t, "ab", v.ToJSString(got))
}

func TestFunctionCallAndApply(t *testing.T) {
	got, _ := eval(t, `
function who() { return this.tag; }
const o = {tag: 5};
who.call(o) + who.apply(o, [])`)
	assert.Equal(t, 10.0, got.AsNumber())

	got, _ = eval(t, `
function add(a, b) { return a + b; }
add.apply(undefined, [20, 22])`)
	assert.Equal(t, 42.0, got.AsNumber())
}

func TestStringPrimitiveProperties(t *testing.T) {
	got, _ := eval(t, "'hello'.length")
	assert.Equal(t, 5.0, got.AsNumber())
	got, v := eval(t, "'hello'[1]")
	assert.Equal(t, "e", v.ToJSString(got))
}

func TestExtraAndMissingArguments(t *testing.T) {
	got, _ := eval(t, "function f(a, b) { return b === undefined ? 1 : 0; } f(9)")
	assert.Equal(t, 1.0, got.AsNumber(), "missing args pad with undefined")
	got, _ = eval(t, "function f(a) { return a; } f(5, 6, 7)")
	assert.Equal(t, 5.0, got.AsNumber(), "extra args are ignored")
}

func TestGlobalAssignmentWithoutDeclaration(t *testing.T) {
	got, _ := eval(t, "g = 13; g")
	assert.Equal(t, 13.0, got.AsNumber())
}

func TestGlobalThisAndGlobals(t *testing.T) {
	got, _ := eval(t, "globalThis.answer = 42; answer")
	assert.Equal(t, 42.0, got.AsNumber())

	got, _ = eval(t, "Infinity > 123456789")
	assert.True(t, got.AsBoolean())
	got, _ = eval(t, "NaN == NaN")
	assert.False(t, got.AsBoolean())
}

func TestGCKeepsReachableObjectsAcrossCollect(t *testing.T) {
	v, it := newTestVM(t, vm.Config{})
	_, err := run(t, v, it, `
keep = {a: 1, nested: {b: 2}};
for (let i = 0; i < 100; i++) { const garbage = {i: i}; }
`)
	require.NoError(t, err)

	before := v.Heap.Len()
	v.Collect()
	afterFirst := v.Heap.Len()
	assert.Less(t, afterFirst, before, "the loop's garbage objects must be freed")

	v.Collect()
	assert.Equal(t, afterFirst, v.Heap.Len(), "a second collection with no mutation frees nothing")

	got, err := run(t, v, it, "keep.nested.b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.AsNumber(), "globally reachable objects survive collection")
}

func TestGCPreservesClosureCells(t *testing.T) {
	v, it := newTestVM(t, vm.Config{})
	_, err := run(t, v, it, `
function make() { let hidden = {x: 77}; return function() { return hidden.x; }; }
probe = make();
`)
	require.NoError(t, err)

	v.Collect()
	got, err := run(t, v, it, "probe()")
	require.NoError(t, err)
	assert.Equal(t, 77.0, got.AsNumber(), "upvalue cell and its object survive collection")
}

func TestGCPreservesIterationProtocolObjects(t *testing.T) {
	// The iterator prototype is reachable only through the prototype
	// table, never through the global object's value graph; a collect
	// between runs must not free it out from under a later for-of.
	v, it := newTestVM(t, vm.Config{})
	_, err := run(t, v, it, "let warm = 0; for (const x of [1]) { warm += x; }")
	require.NoError(t, err)

	v.Collect()
	got, err := run(t, v, it, "let s = 0; for (const x of [5, 6]) { s += x; } s")
	require.NoError(t, err)
	assert.Equal(t, 11.0, got.AsNumber())
}

func TestDebuggerCallbackInvoked(t *testing.T) {
	hits := 0
	cfg := vm.Config{Callbacks: vm.HostCallbacks{
		Debugger: func(*vm.VM) error { hits++; return nil },
	}}
	v, it := newTestVM(t, cfg)
	_, err := run(t, v, it, "debugger; 1")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}
