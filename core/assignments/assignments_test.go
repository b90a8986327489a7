package assignments

import (
	"testing"

	"github.com/redox-os/ion-sub003/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	cases := []struct {
		input string
		want  Statement
	}{
		{"", Statement{}},
		{"abc", Statement{Keys: "abc"}},
		{"abc+=def", Statement{Keys: "abc", Op: Add, HasOp: true, Value: "def", HasValue: true}},
		{"abc =", Statement{Keys: "abc", Op: Equal, HasOp: true}},
		{"abc =  ", Statement{Keys: "abc", Op: Equal, HasOp: true}},
		{"abc = def", Statement{Keys: "abc", Op: Equal, HasOp: true, Value: "def", HasValue: true}},
		{"abc=def", Statement{Keys: "abc", Op: Equal, HasOp: true, Value: "def", HasValue: true}},
		{"def ghi += 124 523", Statement{Keys: "def ghi", Op: Add, HasOp: true, Value: "124 523", HasValue: true}},
		{"a -= 1", Statement{Keys: "a", Op: Subtract, HasOp: true, Value: "1", HasValue: true}},
		{"a /= 2", Statement{Keys: "a", Op: Divide, HasOp: true, Value: "2", HasValue: true}},
		{"a //= 2", Statement{Keys: "a", Op: IntegerDivide, HasOp: true, Value: "2", HasValue: true}},
		{"a *= 2", Statement{Keys: "a", Op: Multiply, HasOp: true, Value: "2", HasValue: true}},
		{"a **= 2", Statement{Keys: "a", Op: Exponent, HasOp: true, Value: "2", HasValue: true}},
		{"a ?= x", Statement{Keys: "a", Op: Default, HasOp: true, Value: "x", HasValue: true}},
		{"a ++= [x]", Statement{Keys: "a", Op: Append, HasOp: true, Value: "[x]", HasValue: true}},
		{"a ::= [x]", Statement{Keys: "a", Op: Prepend, HasOp: true, Value: "[x]", HasValue: true}},
		{`a \\= [x]`, Statement{Keys: "a", Op: Filter, HasOp: true, Value: "[x]", HasValue: true}},
		{"ab:int *= 3", Statement{Keys: "ab:int", Op: Multiply, HasOp: true, Value: "3", HasValue: true}},
		{"a-b = 1", Statement{Keys: "a-b", Op: Equal, HasOp: true, Value: "1", HasValue: true}},
		{"m:hmap[int] = [a=1]", Statement{Keys: "m:hmap[int]", Op: Equal, HasOp: true, Value: "[a=1]", HasValue: true}},
		{"a = b = c", Statement{Keys: "a", Op: Equal, HasOp: true, Value: "b = c", HasValue: true}},
		{`"a=b"`, Statement{Keys: `"a=b"`}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Lex(tc.input))
		})
	}
}

func TestOperator_roundTrip(t *testing.T) {
	for op := Equal; op <= Filter; op++ {
		got, ok := ParseOperator(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, got)
	}
	_, ok := ParseOperator("%=")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Operator(99).String())
}

func TestParsePrimitive(t *testing.T) {
	cases := []struct {
		input string
		want  Primitive
		ok    bool
	}{
		{"str", Primitive{Kind: Str}, true},
		{"bool", Primitive{Kind: Boolean}, true},
		{"int", Primitive{Kind: Integer}, true},
		{"float", Primitive{Kind: Float}, true},
		{"[]", Primitive{Kind: AnyArray}, true},
		{"str[]", Primitive{Kind: StrArray}, true},
		{"bool[]", Primitive{Kind: BooleanArray}, true},
		{"int[]", Primitive{Kind: IntegerArray}, true},
		{"float[]", Primitive{Kind: FloatArray}, true},
		{"hmap[]", Primitive{Kind: HashMap, Elem: Any}, true},
		{"hmap[int]", Primitive{Kind: HashMap, Elem: Integer}, true},
		{"bmap[str]", Primitive{Kind: BTreeMap, Elem: Str}, true},
		{"bmap[int[]]", Primitive{}, false},
		{"list", Primitive{}, false},
		{"x[]", Primitive{}, false},
		{"", Primitive{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParsePrimitive(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
			if ok && tc.want.Kind != Any {
				again, _ := ParsePrimitive(got.String())
				assert.Equal(t, got, again)
			}
		})
	}
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys("a b[] c:int[], d:hmap[float] e[3]")
	require.NoError(t, err)
	assert.Equal(t, []Key{
		{Name: "a", Kind: Primitive{Kind: Any}},
		{Name: "b", Kind: Primitive{Kind: AnyArray}},
		{Name: "c", Kind: Primitive{Kind: IntegerArray}},
		{Name: "d", Kind: Primitive{Kind: HashMap, Elem: Float}},
		{Name: "e", Kind: Primitive{Kind: Indexed}, Index: "3"},
	}, keys)

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	assert.Equal(t, []string{"a", "b[]", "c:int[]", "d:hmap[float]", "e[3]"}, names)
}

func TestParseKeys_errors(t *testing.T) {
	for _, input := range []string{"a:list", ":int", "a-b", "e[3", "[1]"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseKeys(input)
			var target *InvalidKeyError
			assert.ErrorAs(t, err, &target)
		})
	}
}

func TestActions(t *testing.T) {
	actions, err := Actions(Lex("abc def = 123 456"))
	require.NoError(t, err)
	assert.Equal(t, []Action{
		{Key: Key{Name: "abc"}, Op: Equal, Value: "123"},
		{Key: Key{Name: "def"}, Op: Equal, Value: "456"},
	}, actions)

	actions, err = Actions(Lex("ab:int *= 3"))
	require.NoError(t, err)
	assert.Equal(t, []Action{
		{Key: Key{Name: "ab", Kind: Primitive{Kind: Integer}}, Op: Multiply, Value: "3"},
	}, actions)

	actions, err = Actions(Lex("a b[] c:int[] = one [two three] [4 5 6]"))
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.False(t, actions[0].Array)
	assert.Equal(t, "[two three]", actions[1].Value)
	assert.True(t, actions[1].Array)
	assert.Equal(t, Primitive{Kind: IntegerArray}, actions[2].Key.Kind)
	assert.True(t, actions[2].Array)

	actions, err = Actions(Lex("x y"))
	require.NoError(t, err)
	assert.Equal(t, []Action{{Key: Key{Name: "x"}}, {Key: Key{Name: "y"}}}, actions)
}

func TestActions_errors(t *testing.T) {
	cases := []struct {
		input  string
		target interface{}
	}{
		{"a b = 1", new(*ArityError)},
		{"a = 1 2", new(*ArityError)},
		{"= 1", new(*ArityError)},
		{"a =", new(*ArityError)},
		{"a a = 1 2", new(*RepeatedKeyError)},
		{"a:int = [1 2]", new(*TypeError)},
		{"a:int[] = 1", new(*TypeError)},
		{"a[] = @arr[0]", new(*TypeError)},
		{"a:wat = 1", new(*InvalidKeyError)},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Actions(Lex(tc.input))
			assert.ErrorAs(t, err, tc.target)
		})
	}
}

func TestIsArray(t *testing.T) {
	cases := map[string]bool{
		"[1 2 3]":      true,
		"[1 2 3][1]":   false,
		"[1 2 3][1..]": true,
		"@arr":         true,
		"@arr[0]":      false,
		"@(ls)":        true,
		"@split(x)":    true,
		`"@arr"`:       false,
		"$arr":         false,
		"plain":        false,
		"[a]b":         false,
	}

	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, IsArray(input))
		})
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name  string
		value types.Value
		kind  string
		want  types.Value
	}{
		{"any", types.Strings("x"), "", types.Strings("x")},
		{"bool-yes", types.Str("y"), "bool", types.Str("true")},
		{"bool-zero", types.Str("0"), "bool", types.Str("false")},
		{"int", types.Str("-42"), "int", types.Str("-42")},
		{"float", types.Str("2.5"), "float", types.Str("2.5")},
		{"str", types.Str("hi"), "str", types.Str("hi")},
		{"bool-array", types.Strings("1", "n"), "bool[]", types.Strings("true", "false")},
		{"int-array", types.Strings("1", "2"), "int[]", types.Strings("1", "2")},
		{"any-array", types.Strings(), "[]", types.Strings()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Primitive{Kind: Any}
			if tc.kind != "" {
				var ok bool
				p, ok = ParsePrimitive(tc.kind)
				require.True(t, ok)
			}
			got, err := Check(tc.value, p)
			require.NoError(t, err)
			assert.Equal(t, tc.want.Words(), got.Words())
			assert.Equal(t, tc.want.Kind(), got.Kind())
		})
	}
}

func TestCheck_errors(t *testing.T) {
	cases := []struct {
		name  string
		value types.Value
		kind  string
	}{
		{"bool", types.Str("maybe"), "bool"},
		{"int", types.Str("1.5"), "int"},
		{"float", types.Str("x"), "float"},
		{"str-given-array", types.Strings("a"), "str"},
		{"array-given-str", types.Str("a"), "[]"},
		{"int-array", types.Strings("1", "x"), "int[]"},
		{"map-given-str", types.Str("a=1"), "hmap[]"},
		{"map-without-equals", types.Strings("a"), "hmap[]"},
		{"map-bad-value", types.Strings("a=x"), "hmap[int]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := ParsePrimitive(tc.kind)
			require.True(t, ok)
			_, err := Check(tc.value, p)
			var target *TypeError
			assert.ErrorAs(t, err, &target)
		})
	}
}

func TestCheck_maps(t *testing.T) {
	v, err := Check(types.Strings("z=1", "a=2"), Primitive{Kind: BTreeMap, Elem: Integer})
	require.NoError(t, err)
	assert.Equal(t, types.KindBTreeMap, v.Kind())
	assert.Equal(t, []string{"a", "z"}, v.Keys())

	v, err = Check(types.Strings("z=1", "a=2"), Primitive{Kind: HashMap, Elem: Any})
	require.NoError(t, err)
	assert.Equal(t, types.KindHashMap, v.Kind())
	assert.Equal(t, []string{"z", "a"}, v.Keys())
}

func TestOperator_Apply(t *testing.T) {
	cases := []struct {
		name    string
		op      Operator
		current types.Value
		value   types.Value
		want    []string
	}{
		{"equal", Equal, types.Str("a"), types.Str("b"), []string{"b"}},
		{"default-unset", Default, types.None, types.Str("b"), []string{"b"}},
		{"default-empty", Default, types.Str(""), types.Str("b"), []string{"b"}},
		{"default-set", Default, types.Str("a"), types.Str("b"), []string{"a"}},
		{"add", Add, types.Str("2"), types.Str("3"), []string{"5"}},
		{"add-float", Add, types.Str("2"), types.Str("0.5"), []string{"2.5"}},
		{"subtract", Subtract, types.Str("2"), types.Str("3"), []string{"-1"}},
		{"multiply", Multiply, types.Str("4"), types.Str("3"), []string{"12"}},
		{"divide", Divide, types.Str("7"), types.Str("2"), []string{"3.5"}},
		{"divide-even", Divide, types.Str("6"), types.Str("2"), []string{"3"}},
		{"integer-divide", IntegerDivide, types.Str("7"), types.Str("2"), []string{"3"}},
		{"integer-divide-negative", IntegerDivide, types.Str("-7"), types.Str("2"), []string{"-4"}},
		{"exponent", Exponent, types.Str("2"), types.Str("10"), []string{"1024"}},
		{"append-string", Append, types.Str("ab"), types.Str("cd"), []string{"abcd"}},
		{"append-array", Append, types.Strings("a"), types.Strings("b", "c"), []string{"a", "b", "c"}},
		{"append-to-unset", Append, types.None, types.Strings("b"), []string{"b"}},
		{"prepend-string", Prepend, types.Str("ab"), types.Str("cd"), []string{"cdab"}},
		{"prepend-array", Prepend, types.Strings("a"), types.Strings("b", "c"), []string{"b", "c", "a"}},
		{"filter", Filter, types.Strings("a", "b", "a", "c"), types.Strings("a", "c"), []string{"b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op.Apply(tc.current, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Words())
		})
	}
}

func TestOperator_ApplyErrors(t *testing.T) {
	cases := []struct {
		name    string
		op      Operator
		current types.Value
		value   types.Value
	}{
		{"not-a-number", Add, types.Str("a"), types.Str("1")},
		{"right-not-a-number", Multiply, types.Str("1"), types.Str("b")},
		{"divide-by-zero", Divide, types.Str("1"), types.Str("0")},
		{"integer-divide-by-zero", IntegerDivide, types.Str("1"), types.Str("0")},
		{"array", Add, types.Strings("1"), types.Str("1")},
		{"filter-string", Filter, types.Str("a"), types.Str("a")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.op.Apply(tc.current, tc.value)
			var target *MathError
			assert.ErrorAs(t, err, &target)
		})
	}
}

func FuzzLex(f *testing.F) {
	if testing.Short() {
		f.Skip("skipping fuzz test in short mode")
	}

	for _, seed := range []string{"a = b", "a b:int[] += [1 2]", `x "=" ?= y`, "m:hmap[int] = [a=1]", "=", "[[[="} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		stmt := Lex(input)
		if stmt.HasValue && !stmt.HasOp {
			t.Fatalf("value without operator: %#v", stmt)
		}
		Actions(stmt)
	})
}
