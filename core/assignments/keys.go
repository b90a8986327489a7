package assignments

import (
	"fmt"
	"strings"
)

// Kind is the type a key is annotated with.
type Kind int

const (
	Any Kind = iota
	AnyArray
	Str
	StrArray
	Boolean
	BooleanArray
	Integer
	IntegerArray
	Float
	FloatArray
	HashMap
	BTreeMap
	// Indexed keys assign to one element: `name[index]`.
	Indexed
)

// Primitive is a type annotation. Elem is the value type of maps.
type Primitive struct {
	Kind Kind
	Elem Kind
}

var scalarKinds = map[string]Kind{
	"str":   Str,
	"bool":  Boolean,
	"int":   Integer,
	"float": Float,
}

// ParsePrimitive parses a type annotation such as `int`, `str[]`, `[]` or
// `hmap[float]`.
func ParsePrimitive(text string) (Primitive, bool) {
	if text == "[]" {
		return Primitive{Kind: AnyArray}, true
	}
	if k, ok := scalarKinds[text]; ok {
		return Primitive{Kind: k}, true
	}
	for prefix, kind := range map[string]Kind{"hmap[": HashMap, "bmap[": BTreeMap} {
		if !strings.HasPrefix(text, prefix) || !strings.HasSuffix(text, "]") {
			continue
		}
		inner := text[len(prefix) : len(text)-1]
		if inner == "" {
			return Primitive{Kind: kind, Elem: Any}, true
		}
		if k, ok := scalarKinds[inner]; ok {
			return Primitive{Kind: kind, Elem: k}, true
		}
		return Primitive{}, false
	}

	if base := strings.TrimSuffix(text, "[]"); base != text {
		if k, ok := scalarKinds[base]; ok {
			return Primitive{Kind: k + 1}, true
		}
	}
	return Primitive{}, false
}

// IsArray reports whether values of this type are arrays or maps.
func (p Primitive) IsArray() bool {
	switch p.Kind {
	case AnyArray, StrArray, BooleanArray, IntegerArray, FloatArray, HashMap, BTreeMap:
		return true
	}
	return false
}

func (p Primitive) String() string {
	switch p.Kind {
	case Any, Str:
		return "str"
	case AnyArray:
		return "[]"
	case Boolean:
		return "bool"
	case Integer:
		return "int"
	case Float:
		return "float"
	case StrArray, BooleanArray, IntegerArray, FloatArray:
		return Primitive{Kind: p.Kind - 1}.String() + "[]"
	case HashMap, BTreeMap:
		name := "hmap"
		if p.Kind == BTreeMap {
			name = "bmap"
		}
		if p.Elem == Any {
			return name + "[]"
		}
		return fmt.Sprintf("%s[%s]", name, Primitive{Kind: p.Elem})
	case Indexed:
		return "index"
	}
	return "unknown"
}

// Key is a variable name with its type.
type Key struct {
	Name  string
	Kind  Primitive
	Index string
}

func (k Key) String() string {
	switch {
	case k.Kind.Kind == Indexed:
		return fmt.Sprintf("%s[%s]", k.Name, k.Index)
	case k.Kind.Kind == Any:
		return k.Name
	case k.Kind.Kind == AnyArray:
		return k.Name + "[]"
	}
	return k.Name + ":" + k.Kind.String()
}

// InvalidKeyError is returned for a malformed key.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Key, e.Reason)
}

// ParseKeys parses a whitespace or comma separated list of keys:
// `name`, `name:type`, `name[]` and `name[index]`.
func ParseKeys(keys string) ([]Key, error) {
	var out []Key
	for _, text := range splitKeys(keys) {
		key, err := parseKey(text)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, nil
}

func parseKey(text string) (Key, error) {
	if i := strings.IndexByte(text, ':'); i >= 0 {
		name, annotation := text[:i], text[i+1:]
		if err := checkName(text, name); err != nil {
			return Key{}, err
		}
		p, ok := ParsePrimitive(annotation)
		if !ok {
			return Key{}, &InvalidKeyError{Key: text, Reason: fmt.Sprintf("unknown type %q", annotation)}
		}
		return Key{Name: name, Kind: p}, nil
	}

	if i := strings.IndexByte(text, '['); i >= 0 {
		name := text[:i]
		if err := checkName(text, name); err != nil {
			return Key{}, err
		}
		if !strings.HasSuffix(text, "]") {
			return Key{}, &InvalidKeyError{Key: text, Reason: "unterminated index"}
		}
		index := text[i+1 : len(text)-1]
		if index == "" {
			return Key{Name: name, Kind: Primitive{Kind: AnyArray}}, nil
		}
		return Key{Name: name, Kind: Primitive{Kind: Indexed}, Index: index}, nil
	}

	if err := checkName(text, text); err != nil {
		return Key{}, err
	}
	return Key{Name: text, Kind: Primitive{Kind: Any}}, nil
}

func checkName(key, name string) error {
	if name == "" {
		return &InvalidKeyError{Key: key, Reason: "empty name"}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return &InvalidKeyError{Key: key, Reason: fmt.Sprintf("%q is not allowed in a name", c)}
		}
	}
	return nil
}

// splitKeys splits on whitespace and commas outside brackets.
func splitKeys(keys string) []string {
	var (
		out   []string
		start = -1
		depth int
	)
	for i := 0; i < len(keys); i++ {
		c := keys[i]
		switch {
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case depth == 0 && (c == ',' || c == ' ' || c == '\t' || c == '\n'):
			if start >= 0 {
				out = append(out, keys[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, keys[start:])
	}
	return out
}
