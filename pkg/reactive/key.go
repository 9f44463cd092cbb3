package reactive

import "strconv"

type keyKind uint8

const (
	keyField keyKind = iota
	keyIndex
	keyIterate
	keyLength
)

// Key identifies one dependency channel on a target: a named field, an
// array index, or one of the two sentinel channels.
type Key struct {
	kind  keyKind
	name  string
	index int
}

var (
	// IterateKey is tracked by key enumeration and fired by structural
	// additions and deletions.
	IterateKey = Key{kind: keyIterate}

	// LengthKey is the array length channel.
	LengthKey = Key{kind: keyLength}

	valueKey = FieldKey("value")
)

// FieldKey returns the key of an object field.
func FieldKey(name string) Key {
	return Key{kind: keyField, name: name}
}

// IndexKey returns the key of an array element.
func IndexKey(i int) Key {
	return Key{kind: keyIndex, index: i}
}

// Index returns the element index for index keys.
func (k Key) Index() (int, bool) {
	if k.kind != keyIndex {
		return 0, false
	}
	return k.index, true
}

// String returns a human-readable form used in logs and metrics.
func (k Key) String() string {
	switch k.kind {
	case keyIndex:
		return strconv.Itoa(k.index)
	case keyIterate:
		return "<iterate>"
	case keyLength:
		return "<length>"
	default:
		return k.name
	}
}

// parseIndex interprets a field name as an array index.
func parseIndex(name string) (int, bool) {
	if name == "" || name[0] < '0' || name[0] > '9' || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
