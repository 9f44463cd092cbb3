package reactive

import (
	"math"
	"reflect"
)

// SameValue reports whether writing b over a is a no-op.
//
// Floats follow same-value semantics: NaN equals NaN, and 0 and -0 are
// distinct. Maps, slices, funcs, channels and pointers compare by identity.
// Other comparable values use ==; anything else falls back to
// reflect.DeepEqual.
func SameValue(a, b any) bool {
	return sameValue(a, b, false)
}

// sameValueZero is SameValue with 0 and -0 treated as equal.
func sameValueZero(a, b any) bool {
	return sameValue(a, b, true)
}

// strictEquals never treats NaN as equal to itself and ignores the sign of zero.
func strictEquals(a, b any) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}
	return sameValue(a, b, true)
}

func sameValue(a, b any, zeroEqual bool) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && sameFloat(av, bv, zeroEqual)
	case float32:
		bv, ok := b.(float32)
		return ok && sameFloat(float64(av), float64(bv), zeroEqual)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, string, bool:
		return a == b
	case nil:
		return b == nil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !rb.IsValid() || ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}

	if ra.Type().Comparable() {
		if eq, ok := safeEquals(a, b); ok {
			return eq
		}
	}
	return reflect.DeepEqual(a, b)
}

// safeEquals compares with == and reports false in ok if the comparison
// panicked (an interface field holding an uncomparable value).
func safeEquals(a, b any) (eq, ok bool) {
	defer func() {
		if recover() != nil {
			eq, ok = false, false
		}
	}()
	return a == b, true
}

func sameFloat(a, b float64, zeroEqual bool) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == 0 && b == 0 && !zeroEqual {
		return math.Signbit(a) == math.Signbit(b)
	}
	return a == b
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}
