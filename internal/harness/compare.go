package harness

import (
	"encoding/json"
	"math/big"
	"sort"
)

// Normalize sorts every nested sequence of value, innermost first, so results whose
// order carries no meaning compare equal. Non-sequence values are returned unchanged.
func Normalize(value interface{}) interface{} {
	items, ok := value.([]interface{})
	if !ok {
		return value
	}

	sorted := make([]interface{}, len(items))
	for i, item := range items {
		sorted[i] = Normalize(item)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareValues(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// Equal reports deep equality of two decoded JSON values. Numbers compare by value,
// so 6 and 6.0 are equal.
func Equal(a, b interface{}) bool {
	return compareValues(a, b) == 0
}

func rank(value interface{}) int {
	switch value.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	case []interface{}:
		return 4
	case map[string]interface{}:
		return 5
	}
	if _, ok := toRat(value); ok {
		return 2
	}
	return 6
}

// compareValues is a total order over decoded JSON values that agrees with Equal.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0:
		return 0
	case 1:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case 2:
		ar, _ := toRat(a)
		br, _ := toRat(b)
		return ar.Cmp(br)
	case 3:
		av, bv := a.(string), b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case 4:
		av, bv := a.([]interface{}), b.([]interface{})
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := compareValues(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(av), len(bv))
	case 5:
		av, bv := a.(map[string]interface{}), b.(map[string]interface{})
		if len(av) == len(bv) {
			equal := true
			for key, value := range av {
				other, ok := bv[key]
				if !ok || compareValues(value, other) != 0 {
					equal = false
					break
				}
			}
			if equal {
				return 0
			}
		}
		ca, cb := canonicalJSON(a), canonicalJSON(b)
		if ca < cb {
			return -1
		}
		if ca > cb {
			return 1
		}
		return compareInts(len(av), len(bv))
	default:
		ca, cb := canonicalJSON(a), canonicalJSON(b)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		default:
			return 0
		}
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toRat(value interface{}) (*big.Rat, bool) {
	switch v := value.(type) {
	case json.Number:
		return new(big.Rat).SetString(v.String())
	case float64:
		r := new(big.Rat)
		if r.SetFloat64(v) == nil {
			return nil, false
		}
		return r, true
	case float32:
		r := new(big.Rat)
		if r.SetFloat64(float64(v)) == nil {
			return nil, false
		}
		return r, true
	case int:
		return new(big.Rat).SetInt64(int64(v)), true
	case int64:
		return new(big.Rat).SetInt64(v), true
	case int32:
		return new(big.Rat).SetInt64(int64(v)), true
	}
	return nil, false
}
