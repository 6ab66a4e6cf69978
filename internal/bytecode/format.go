// Snapshot (.jsb) serialization: a version byte, a u64 instruction
// count, the instruction bytes, then
// the constant pool: one discriminant byte per entry (identifier=0,
// index=1, function=2, value=3) followed by its payload. Strings are
// length-prefixed u64 + UTF-8 bytes. The format is little-endian and
// is not meant to be portable across host endianness or across
// FormatVersion values.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kristofer/jscore/internal/interner"
)

const FormatVersion byte = 1

const (
	discIdentifier byte = 0
	discIndex       byte = 1
	discFunction    byte = 2
	discValue       byte = 3
)

const (
	valNumber byte = iota + 1
	valBoolean
	valString
	valNull
	valUndefined
	valRegex
)

// Encode writes proto's instructions and constant pool to w in the
// documented snapshot format. it resolves interner.Symbols to their
// backing strings so the snapshot is self-contained.
func Encode(w io.Writer, proto *FunctionProto, it *interner.Interner) error {
	if _, err := w.Write([]byte{FormatVersion}); err != nil {
		return err
	}
	return encodeBody(w, proto, it)
}

func encodeBody(w io.Writer, proto *FunctionProto, it *interner.Interner) error {
	if err := writeU64(w, uint64(len(proto.Instructions))); err != nil {
		return err
	}
	for _, inst := range proto.Instructions {
		if _, err := w.Write([]byte{byte(inst.Op)}); err != nil {
			return err
		}
		if err := writeI32(w, inst.A); err != nil {
			return err
		}
		if err := writeI32(w, inst.B); err != nil {
			return err
		}
	}

	if err := writeU64(w, uint64(len(proto.Constants))); err != nil {
		return err
	}
	for _, c := range proto.Constants {
		if err := encodeConstant(w, c, it); err != nil {
			return err
		}
	}
	return nil
}

func encodeConstant(w io.Writer, c Constant, it *interner.Interner) error {
	switch c.Kind {
	case ConstIdentifier:
		if _, err := w.Write([]byte{discIdentifier}); err != nil {
			return err
		}
		return writeString(w, it.Lookup(c.Str))
	case ConstFunction:
		if _, err := w.Write([]byte{discFunction}); err != nil {
			return err
		}
		return encodeFunction(w, c.Function, it)
	default:
		if _, err := w.Write([]byte{discValue}); err != nil {
			return err
		}
		return encodeValuePayload(w, c, it)
	}
}

func encodeValuePayload(w io.Writer, c Constant, it *interner.Interner) error {
	switch c.Kind {
	case ConstNumber:
		if _, err := w.Write([]byte{valNumber}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, c.Number)
	case ConstBoolean:
		b := byte(0)
		if c.Boolean {
			b = 1
		}
		_, err := w.Write([]byte{valBoolean, b})
		return err
	case ConstString:
		if _, err := w.Write([]byte{valString}); err != nil {
			return err
		}
		return writeString(w, it.Lookup(c.Str))
	case ConstRegex:
		if _, err := w.Write([]byte{valRegex}); err != nil {
			return err
		}
		if err := writeString(w, it.Lookup(c.RegexPattern)); err != nil {
			return err
		}
		return writeString(w, it.Lookup(c.RegexFlags))
	default:
		return fmt.Errorf("bytecode: cannot encode constant kind %d as a value payload", c.Kind)
	}
}

func encodeFunction(w io.Writer, fn *FunctionProto, it *interner.Interner) error {
	if err := writeU64(w, uint64(fn.ParamCount)); err != nil {
		return err
	}
	if err := writeU64(w, uint64(fn.LocalCount)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(fn.Kind)}); err != nil {
		return err
	}
	hasName := byte(0)
	if fn.HasName {
		hasName = 1
	}
	if _, err := w.Write([]byte{hasName}); err != nil {
		return err
	}
	if fn.HasName {
		if err := writeString(w, it.Lookup(fn.Name)); err != nil {
			return err
		}
	}
	if err := writeU64(w, uint64(len(fn.Externals))); err != nil {
		return err
	}
	for _, e := range fn.Externals {
		if err := writeU64(w, uint64(e.ParentSlot)); err != nil {
			return err
		}
		nested := byte(0)
		if e.IsNested {
			nested = 1
		}
		if _, err := w.Write([]byte{nested}); err != nil {
			return err
		}
	}
	return encodeBody(w, fn, it)
}

// Decode reads a snapshot previously written by Encode, interning any
// strings it contains into it.
func Decode(r io.Reader, it *interner.Interner) (*FunctionProto, error) {
	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, err
	}
	if version[0] != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported snapshot version %d", version[0])
	}
	return decodeBody(r, it)
}

func decodeBody(r io.Reader, it *interner.Interner) (*FunctionProto, error) {
	instCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	insts := make([]Instruction, instCount)
	for i := range insts {
		var op [1]byte
		if _, err := io.ReadFull(r, op[:]); err != nil {
			return nil, err
		}
		a, err := readI32(r)
		if err != nil {
			return nil, err
		}
		b, err := readI32(r)
		if err != nil {
			return nil, err
		}
		insts[i] = Instruction{Op: Opcode(op[0]), A: a, B: b}
	}

	constCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	consts := make([]Constant, constCount)
	for i := range consts {
		c, err := decodeConstant(r, it)
		if err != nil {
			return nil, err
		}
		consts[i] = c
	}

	return &FunctionProto{Instructions: insts, Constants: consts}, nil
}

func decodeConstant(r io.Reader, it *interner.Interner) (Constant, error) {
	var disc [1]byte
	if _, err := io.ReadFull(r, disc[:]); err != nil {
		return Constant{}, err
	}
	switch disc[0] {
	case discIdentifier:
		s, err := readString(r)
		if err != nil {
			return Constant{}, err
		}
		return IdentConst(it.Intern(s)), nil
	case discFunction:
		fn, err := decodeFunction(r, it)
		if err != nil {
			return Constant{}, err
		}
		return FunctionConst(fn), nil
	case discIndex:
		// Reserved for a future raw-index constant kind; not produced
		// by this engine's compiler today.
		n, err := readU64(r)
		if err != nil {
			return Constant{}, err
		}
		return NumberConst(float64(n)), nil
	case discValue:
		return decodeValuePayload(r, it)
	default:
		return Constant{}, fmt.Errorf("bytecode: unknown constant discriminant %d", disc[0])
	}
}

func decodeValuePayload(r io.Reader, it *interner.Interner) (Constant, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return Constant{}, err
	}
	switch kind[0] {
	case valNumber:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return Constant{}, err
		}
		return NumberConst(f), nil
	case valBoolean:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Constant{}, err
		}
		return BooleanConst(b[0] != 0), nil
	case valString:
		s, err := readString(r)
		if err != nil {
			return Constant{}, err
		}
		return StringConst(it.Intern(s)), nil
	case valNull, valUndefined:
		// Represented in the constant pool only for literal folding;
		// callers special-case these at compile time today, so this
		// path exists for forward snapshot compatibility.
		return Constant{}, nil
	case valRegex:
		pattern, err := readString(r)
		if err != nil {
			return Constant{}, err
		}
		flags, err := readString(r)
		if err != nil {
			return Constant{}, err
		}
		return RegexConst(it.Intern(pattern), it.Intern(flags)), nil
	default:
		return Constant{}, fmt.Errorf("bytecode: unknown value payload kind %d", kind[0])
	}
}

func decodeFunction(r io.Reader, it *interner.Interner) (*FunctionProto, error) {
	paramCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	localCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return nil, err
	}
	var hasName [1]byte
	if _, err := io.ReadFull(r, hasName[:]); err != nil {
		return nil, err
	}
	var name interner.Symbol
	if hasName[0] != 0 {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		name = it.Intern(s)
	}
	externalCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	externals := make([]ExternalDesc, externalCount)
	for i := range externals {
		slot, err := readU64(r)
		if err != nil {
			return nil, err
		}
		var nested [1]byte
		if _, err := io.ReadFull(r, nested[:]); err != nil {
			return nil, err
		}
		externals[i] = ExternalDesc{ParentSlot: int(slot), IsNested: nested[0] != 0}
	}

	body, err := decodeBody(r, it)
	if err != nil {
		return nil, err
	}
	body.ParamCount = int(paramCount)
	body.LocalCount = int(localCount)
	body.Kind = FunctionKind(kind[0])
	body.HasName = hasName[0] != 0
	body.Name = name
	body.Externals = externals
	return body, nil
}

func writeU64(w io.Writer, n uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeI32(w io.Writer, n int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(n))
	_, err := w.Write(buf[:])
	return err
}

func readI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU64(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU64(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// EncodeToBytes is a convenience wrapper over Encode for callers that
// want an in-memory []byte rather than an io.Writer.
func EncodeToBytes(proto *FunctionProto, it *interner.Interner) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, proto, it); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
