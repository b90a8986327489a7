package assignments

import (
	"strconv"
	"strings"

	"github.com/redox-os/ion-sub003/core/types"
)

// Check validates an expanded value against a type, normalizing booleans to
// true or false and building maps from `key=value` elements.
func Check(v types.Value, p Primitive) (types.Value, error) {
	bad := func() (types.Value, error) {
		return types.None, &TypeError{Want: p, Value: v.String()}
	}

	switch p.Kind {
	case Any, Indexed:
		return v, nil
	case AnyArray:
		if !v.IsArray() {
			return bad()
		}
		return v, nil
	case Str, Boolean, Integer, Float:
		if v.IsArray() {
			return bad()
		}
		s, ok := checkScalar(v.String(), p.Kind)
		if !ok {
			return bad()
		}
		return types.Str(s), nil
	case StrArray, BooleanArray, IntegerArray, FloatArray:
		if !v.IsArray() {
			return bad()
		}
		items := v.Items()
		out := make([]types.Value, len(items))
		for i, item := range items {
			s, ok := checkScalar(item.String(), p.Kind-1)
			if !ok {
				return bad()
			}
			out[i] = types.Str(s)
		}
		return types.Array(out...), nil
	case HashMap, BTreeMap:
		return checkMap(v, p)
	}
	return bad()
}

func checkScalar(s string, k Kind) (string, bool) {
	switch k {
	case Boolean:
		switch s {
		case "true", "1", "y":
			return "true", true
		case "false", "0", "n":
			return "false", true
		}
		return "", false
	case Integer:
		_, err := strconv.ParseInt(s, 10, 64)
		return s, err == nil
	case Float:
		_, err := strconv.ParseFloat(s, 64)
		return s, err == nil
	}
	return s, true
}

func checkMap(v types.Value, p Primitive) (types.Value, error) {
	if v.Map() != nil {
		return v, nil
	}
	if !v.IsArray() {
		return types.None, &TypeError{Want: p, Value: v.String()}
	}

	m := types.NewMap()
	for _, item := range v.Items() {
		key, value, ok := strings.Cut(item.String(), "=")
		if !ok || key == "" {
			return types.None, &TypeError{Want: p, Value: item.String()}
		}
		checked, ok := checkScalar(value, p.Elem)
		if !ok {
			return types.None, &TypeError{Want: Primitive{Kind: p.Elem}, Value: value}
		}
		m.Set(key, types.Str(checked))
	}
	if p.Kind == BTreeMap {
		return types.BTreeMap(m), nil
	}
	return types.HashMap(m), nil
}
