package expand

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/redox-os/ion-sub003/core/types"
)

// arrayMethod evaluates a method called with `@`.
func arrayMethod(c methodCall) ([]types.Value, error) {
	if err := c.checkArgs(); err != nil {
		return nil, err
	}
	value := c.receiver.String()

	switch c.info.Method {
	case MethodBytes:
		out := make([]types.Value, len(value))
		for i := 0; i < len(value); i++ {
			out[i] = types.Str(strconv.Itoa(int(value[i])))
		}
		return out, nil

	case MethodChars:
		out := make([]types.Value, 0, len(value))
		for _, r := range value {
			out = append(out, types.Str(string(r)))
		}
		return out, nil

	case MethodGraphemes:
		return strs(graphemes(value)), nil

	case MethodLines:
		return strs(lines(value)), nil

	case MethodKeys:
		if c.receiver.Map() == nil {
			return nil, c.typeError("receiver is not a map")
		}
		return strs(c.receiver.Keys()), nil

	case MethodValues:
		if c.receiver.Map() == nil {
			return nil, c.typeError("receiver is not a map")
		}
		return c.receiver.Items(), nil

	case MethodReverse:
		items := elements(c.receiver)
		out := make([]types.Value, len(items))
		for i, item := range items {
			out[len(items)-1-i] = item
		}
		return out, nil

	case MethodSplit:
		return strs(split(value, c.pattern())), nil

	case MethodSplitAt:
		n, err := strconv.Atoi(c.pattern().Literal)
		if err != nil {
			return nil, c.typeError("requires a valid number as an argument")
		}
		if n < 0 || n >= len(value) {
			return nil, c.typeError("index out of bounds")
		}
		if !utf8.RuneStart(value[n]) {
			return nil, c.typeError("index is not on a character boundary")
		}
		return []types.Value{types.Str(value[:n]), types.Str(value[n:])}, nil
	}

	return nil, &ContextError{Method: c.info.Name, Array: false}
}

// elements returns the items of an array or map, or a scalar as the only
// element.
func elements(v types.Value) []types.Value {
	switch {
	case v.IsArray():
		return v.Items()
	case v.IsNone():
		return nil
	}
	return []types.Value{v}
}

// lines splits on newlines, dropping a trailing carriage return from each
// line and the empty line after a final newline.
func lines(value string) []string {
	if value == "" {
		return nil
	}
	out := strings.Split(strings.TrimSuffix(value, "\n"), "\n")
	for i, line := range out {
		out[i] = strings.TrimSuffix(line, "\r")
	}
	return out
}

func strs(items []string) []types.Value {
	out := make([]types.Value, len(items))
	for i, item := range items {
		out[i] = types.Str(item)
	}
	return out
}
