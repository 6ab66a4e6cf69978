package vm

import (
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
)

func (th *thread) pushConstant(f *frame, idx int32) error {
	c := f.fn.Def.Constants[idx]
	switch c.Kind {
	case bytecode.ConstNumber:
		return th.push(value.Number(c.Number))
	case bytecode.ConstBoolean:
		return th.push(value.Boolean(c.Boolean))
	case bytecode.ConstString:
		return th.push(value.String(c.Str))
	default:
		return th.vm.throwError(object.ErrorType, "constant pool entry %d is not a pushable literal", idx)
	}
}

// readLocal dereferences slot, following through the upvalue cell a
// capturing closure may have promoted it to.
func (th *thread) readLocal(f *frame, slot int) value.Value {
	v := th.stack[f.sp+slot]
	if v.Kind() == value.KindExternal {
		return th.vm.Heap.Get(v.AsObjectId()).(*object.Cell).V
	}
	return v
}

func (th *thread) writeLocal(f *frame, slot int, val value.Value) {
	idx := f.sp + slot
	if th.stack[idx].Kind() == value.KindExternal {
		th.vm.Heap.Get(th.stack[idx].AsObjectId()).(*object.Cell).V = val
		return
	}
	th.stack[idx] = val
}

// promoteLocal turns slot into a shared Cell the first time it is
// captured, in place on the stack, so the owning frame's own
// OpLdLocal/OpStoreLocal and every closure's OpLdLocalExt/
// OpStoreLocalExt see the same mutable storage.
func (th *thread) promoteLocal(f *frame, slot int) value.ObjectId {
	idx := f.sp + slot
	cur := th.stack[idx]
	if cur.Kind() == value.KindExternal {
		return cur.AsObjectId()
	}
	id := th.vm.Heap.Alloc(&object.Cell{V: cur})
	th.stack[idx] = value.External(id)
	return id
}

func (th *thread) externalCell(f *frame, idx int) *object.Cell {
	return th.vm.Heap.Get(f.fn.Externals[idx]).(*object.Cell)
}

func (th *thread) loadGlobal(f *frame, constIdx int32) error {
	name := f.fn.Def.Constants[constIdx].Str
	key := object.StringKey(name)
	g := th.vm.globalObject()
	if !object.HasProperty(th.vm.Heap, g, key) {
		return th.vm.throwError(object.ErrorReference, "%s is not defined", th.vm.It.Lookup(name))
	}
	v, err := object.GetProperty(th.vm.Heap, th.vm, th.vm.Global, g, key)
	if err != nil {
		return err
	}
	return th.push(v)
}

// getPropertyOf implements the read side of property access for any
// receiver kind: null/undefined always throws, objects defer to the
// prototype-chain protocol, and strings additionally answer "length"
// and integer-index reads without being boxed. Every other primitive
// reads as Undefined.
func (th *thread) getPropertyOf(obj value.Value, key object.PropertyKey) (value.Value, error) {
	if obj.IsNullish() {
		return value.Undefined(), th.vm.throwError(object.ErrorType, "Cannot read properties of %s", th.vm.toJSString(obj))
	}
	if obj.IsObjectLike() {
		o, ok := th.vm.Heap.Get(obj.AsObjectId()).(object.Object)
		if !ok {
			return value.Undefined(), nil
		}
		return object.GetProperty(th.vm.Heap, th.vm, obj, o, key)
	}
	if obj.Kind() == value.KindString {
		s := []rune(th.vm.It.Lookup(obj.AsStringSymbol()))
		if key.Kind() == object.KeyString && key.StringSymbol() == interner.Length {
			return value.Number(float64(len(s))), nil
		}
		if key.Kind() == object.KeyIndex {
			if i := int(key.Index()); i >= 0 && i < len(s) {
				return value.String(th.vm.It.Intern(string(s[i]))), nil
			}
		}
	}
	return value.Undefined(), nil
}

// setPropertyOf implements the write side: assigning through null/
// undefined throws, assigning onto a primitive is a silent no-op
// (there's nowhere for the write to land), and objects defer to the
// own-property write protocol.
func (th *thread) setPropertyOf(obj value.Value, key object.PropertyKey, val value.Value) error {
	if obj.IsNullish() {
		return th.vm.throwError(object.ErrorType, "Cannot set properties of %s", th.vm.toJSString(obj))
	}
	if !obj.IsObjectLike() {
		return nil
	}
	o, ok := th.vm.Heap.Get(obj.AsObjectId()).(object.Object)
	if !ok {
		return nil
	}
	return object.SetProperty(th.vm, obj, o, key, val)
}

// deleteProperty never throws: deleting through a non-object receiver
// (nothing to delete) and deleting an absent key both report success,
// matching `delete` only ever failing on a non-configurable own
// property, which this object model does not enforce.
func (th *thread) deleteProperty(obj value.Value, key object.PropertyKey) bool {
	if !obj.IsObjectLike() {
		return true
	}
	if o, ok := th.vm.Heap.Get(obj.AsObjectId()).(object.Object); ok {
		o.DeleteOwn(key)
	}
	return true
}

func (th *thread) staticPropAccess(f *frame, inst bytecode.Instruction) error {
	key := object.StringKey(f.fn.Def.Constants[inst.A].Str)
	var obj value.Value
	if inst.B == 1 {
		obj = th.peek()
	} else {
		obj = th.pop()
	}
	v, err := th.getPropertyOf(obj, key)
	if err != nil {
		return err
	}
	return th.push(v)
}

func (th *thread) dynamicPropAccess(inst bytecode.Instruction) error {
	keyVal := th.pop()
	var obj value.Value
	if inst.B == 1 {
		obj = th.peek()
	} else {
		obj = th.pop()
	}
	v, err := th.getPropertyOf(obj, th.vm.toPropertyKey(keyVal))
	if err != nil {
		return err
	}
	return th.push(v)
}

func (th *thread) staticPropAssign(f *frame, inst bytecode.Instruction) error {
	key := object.StringKey(f.fn.Def.Constants[inst.A].Str)
	if inst.B == 1 {
		obj := th.pop()
		return th.push(value.Boolean(th.deleteProperty(obj, key)))
	}
	val := th.pop()
	obj := th.pop()
	if err := th.setPropertyOf(obj, key, val); err != nil {
		return err
	}
	return th.push(val)
}

func (th *thread) dynamicPropAssign(inst bytecode.Instruction) error {
	if inst.B == 1 {
		keyVal := th.pop()
		obj := th.pop()
		return th.push(value.Boolean(th.deleteProperty(obj, th.vm.toPropertyKey(keyVal))))
	}
	val := th.pop()
	keyVal := th.pop()
	obj := th.pop()
	if err := th.setPropertyOf(obj, th.vm.toPropertyKey(keyVal), val); err != nil {
		return err
	}
	return th.push(val)
}

func (th *thread) arrayLit(n int) error {
	elems := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		elems[i] = th.pop()
	}
	id := th.vm.Heap.Alloc(object.NewArray(th.vm.Protos.Array, elems))
	return th.push(value.Object(id))
}

func (th *thread) objLit(n int) error {
	type pair struct{ key, val value.Value }
	pairs := make([]pair, n)
	for i := n - 1; i >= 0; i-- {
		v := th.pop()
		k := th.pop()
		pairs[i] = pair{key: k, val: v}
	}
	obj := object.NewOrdinary(th.vm.Protos.Object)
	for _, p := range pairs {
		obj.SetOwn(th.vm.toPropertyKey(p.key), object.StaticProperty(p.val))
	}
	id := th.vm.Heap.Alloc(obj)
	return th.push(value.Object(id))
}

// makeFunction instantiates a closure: every external the callee's
// prototype names is either a nested capture (reuse the current
// frame's own external cell) or a fresh capture of one of the current
// frame's own locals (promoting it to a cell in place if this is its
// first capture).
func (th *thread) makeFunction(f *frame, constIdx int32) error {
	c := f.fn.Def.Constants[constIdx]
	if c.Kind != bytecode.ConstFunction {
		return th.vm.throwError(object.ErrorType, "constant pool entry %d is not a function", constIdx)
	}
	proto := c.Function
	externals := make([]value.ObjectId, len(proto.Externals))
	for i, desc := range proto.Externals {
		if desc.IsNested {
			externals[i] = f.fn.Externals[desc.ParentSlot]
		} else {
			externals[i] = th.promoteLocal(f, desc.ParentSlot)
		}
	}
	fn := object.NewUserFunction(th.vm.Protos.Function, proto, externals)
	id := th.vm.Heap.Alloc(fn)
	if fn.IsConstructor() {
		// Constructible functions carry a fresh .prototype object with
		// a back-pointing .constructor, the pair newInstance and
		// instanceof resolve through.
		protoObj := object.NewOrdinary(th.vm.Protos.Object)
		pid := th.vm.Heap.Alloc(protoObj)
		protoObj.SetOwn(object.NameKey(th.vm.It, "constructor"), object.StaticProperty(value.Object(id)))
		fn.SetOwn(object.NameKey(th.vm.It, "prototype"), object.StaticProperty(value.Object(pid)))
	}
	return th.push(value.Object(id))
}

func (th *thread) hasProperty(obj, keyVal value.Value) (bool, error) {
	if !obj.IsObjectLike() {
		return false, th.vm.throwError(object.ErrorType, "cannot use 'in' operator on a non-object")
	}
	o, ok := th.vm.Heap.Get(obj.AsObjectId()).(object.Object)
	if !ok {
		return false, nil
	}
	return object.HasProperty(th.vm.Heap, o, th.vm.toPropertyKey(keyVal)), nil
}

// instanceOf walks val's prototype chain looking for ctor's own
// "prototype" property; a ctor that isn't callable, or has no
// object-valued "prototype", never matches anything.
func (th *thread) instanceOf(val, ctor value.Value) (bool, error) {
	fn, ok := th.resolveCallable(ctor)
	if !ok {
		return false, th.vm.throwError(object.ErrorType, "Right-hand side of 'instanceof' is not callable")
	}
	pv, ok := fn.GetOwn(object.NameKey(th.vm.It, "prototype"))
	if !ok || pv.Kind != object.PropStatic || !pv.Static.IsObjectLike() {
		return false, nil
	}
	target := pv.Static.AsObjectId()
	if !val.IsObjectLike() {
		return false, nil
	}
	cur := val
	for {
		o, ok := th.vm.Heap.Get(cur.AsObjectId()).(object.Object)
		if !ok {
			return false, nil
		}
		proto := o.Prototype()
		if proto.IsNullish() {
			return false, nil
		}
		if proto.AsObjectId() == target {
			return true, nil
		}
		cur = proto
	}
}
