package value

// Tuple is an ordered, fixed-length sequence of Values — a row. Tuples
// are value objects: copying a Tuple copies its Values (spec §3, §4.1).
// Grounded on original_source/db/core/Tuple.{hpp,cpp}.
type Tuple struct {
	values []Value
}

func NewTuple(values ...Value) Tuple {
	cp := make([]Value, len(values))
	copy(cp, values)
	return Tuple{values: cp}
}

func (t Tuple) Len() int { return len(t.values) }

func (t Tuple) Value(i int) Value { return t.values[i] }

func (t *Tuple) Set(i int, v Value) { t.values[i] = v }

// AppendNull grows the tuple by one Null-valued column, used when
// restructuring a table to a wider schema.
func (t *Tuple) AppendNull() { t.values = append(t.values, NewNull()) }

func (t *Tuple) Append(v Value) { t.values = append(t.values, v) }

// RemoveAt deletes the value at index i, used when DROP COLUMN
// restructures rows.
func (t *Tuple) RemoveAt(i int) {
	t.values = append(t.values[:i], t.values[i+1:]...)
}

// Values returns a defensive copy of the underlying slice.
func (t Tuple) Values() []Value {
	cp := make([]Value, len(t.values))
	copy(cp, t.values)
	return cp
}

// Clone returns an independent copy (tuples are copy-by-value per spec).
func (t Tuple) Clone() Tuple {
	return NewTuple(t.values...)
}

// Equal is element-wise, with Null == Null (§4.1).
func (t Tuple) Equal(o Tuple) bool {
	if len(t.values) != len(o.values) {
		return false
	}
	for i := range t.values {
		eq, err := Equal(t.values[i], o.values[i])
		if err != nil || !eq {
			return false
		}
	}
	return true
}

// Less implements the lexicographic order from §4.1/§8: compare
// left-to-right, Null is smallest, and a shorter tuple that is a
// prefix of a longer one is less than it.
func (t Tuple) Less(o Tuple) bool {
	n := len(t.values)
	if len(o.values) < n {
		n = len(o.values)
	}
	for i := 0; i < n; i++ {
		lt, err := Less(t.values[i], o.values[i])
		if err == nil && lt {
			return true
		}
		eq, err := Equal(t.values[i], o.values[i])
		if err != nil || !eq {
			return false
		}
	}
	return len(t.values) < len(o.values)
}
