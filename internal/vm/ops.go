package vm

import (
	"math"
	"strings"

	"github.com/kristofer/jscore/internal/value"
)

// binaryAdd implements Add's dual numeric/string behavior: both
// operands go through ToPrimitive first, and the operation is string
// concatenation the moment either side comes out a string.
func (th *thread) binaryAdd() error {
	b := th.pop()
	a := th.pop()
	pa := th.vm.toPrimitive(a)
	pb := th.vm.toPrimitive(b)
	if pa.Kind() == value.KindString || pb.Kind() == value.KindString {
		s := th.vm.toJSString(pa) + th.vm.toJSString(pb)
		return th.push(value.String(th.vm.It.Intern(s)))
	}
	return th.push(value.Number(th.vm.toNumber(pa) + th.vm.toNumber(pb)))
}

func (th *thread) binaryArith(fn func(a, b float64) float64) error {
	b := th.pop()
	a := th.pop()
	return th.push(value.Number(fn(th.vm.toNumber(a), th.vm.toNumber(b))))
}

func (th *thread) binaryBit(fn func(a, b int32) int32) error {
	b := th.pop()
	a := th.pop()
	return th.push(value.Number(float64(fn(toInt32(th.vm.toNumber(a)), toInt32(th.vm.toNumber(b))))))
}

func (th *thread) binaryShift(fn func(a int32, s uint32) int32) error {
	b := th.pop()
	a := th.pop()
	s := toUint32(th.vm.toNumber(b)) & 31
	return th.push(value.Number(float64(fn(toInt32(th.vm.toNumber(a)), s))))
}

func (th *thread) unaryNumber(fn func(a float64) float64) error {
	v := th.pop()
	return th.push(value.Number(fn(th.vm.toNumber(v))))
}

func arithRem(a, b float64) float64 { return math.Mod(a, b) }
func arithPow(a, b float64) float64 { return math.Pow(a, b) }

// compare implements the relational operators' shared ordering logic:
// both operands go through ToPrimitive, a same-kind string pair
// compares lexically, everything else compares as numbers with the
// usual NaN-makes-every-relation-false carve-out.
func (th *thread) compare(fn func(c int) bool) error {
	b := th.pop()
	a := th.pop()
	pa := th.vm.toPrimitive(a)
	pb := th.vm.toPrimitive(b)

	var c int
	if pa.Kind() == value.KindString && pb.Kind() == value.KindString {
		c = strings.Compare(th.vm.It.Lookup(pa.AsStringSymbol()), th.vm.It.Lookup(pb.AsStringSymbol()))
	} else {
		na, nb := th.vm.toNumber(pa), th.vm.toNumber(pb)
		if math.IsNaN(na) || math.IsNaN(nb) {
			return th.push(value.Boolean(false))
		}
		switch {
		case na < nb:
			c = -1
		case na > nb:
			c = 1
		default:
			c = 0
		}
	}
	return th.push(value.Boolean(fn(c)))
}
