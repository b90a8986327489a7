package expand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/logger"
	"github.com/redox-os/ion-sub003/core/types"
	"github.com/redox-os/ion-sub003/core/vos/vostest"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestExpander() *vostest.Expander {
	x := vostest.NewExpander()
	x.Set("name", "world").
		Set("empty", "").
		Set("text", "one\ntwo\r\n").
		Set("n", "3").
		SetArray("arr", "a", "b", "c").
		SetCommand("echo hi", "hi there", "x").
		SetCommand("ls", "a.txt", "b.txt")

	m := types.NewMap()
	m.Set("x", types.Str("1"))
	m.Set("y", types.Str("2"))
	x.Vars["m"] = types.HashMap(m)
	return x
}

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src", 0755))
	for _, name := range []string{"/src/b.go", "/src/a.go", "/src/c.txt"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte(name), 0644))
	}
	return fs
}

func expandStrings(t *testing.T, e *Engine, word string) []string {
	t.Helper()

	values, err := e.ExpandWord(context.Background(), word)
	require.NoError(t, err)
	var out []string
	for _, v := range values {
		out = append(out, v.String())
	}
	return out
}

func TestExpandWord(t *testing.T) {
	cases := []struct {
		name string
		word string
		want []string
	}{
		{"plain", "hello", []string{"hello"}},
		{"brace-product", "{a,b}{1,2}", []string{"a1", "a2", "b1", "b2"}},
		{"brace-empty-element", "x{a,}y", []string{"xay", "xy"}},
		{"brace-nested", "{a,{b,c}}", []string{"a", "b", "c"}},
		{"brace-variable", "{$name,x}!", []string{"world!", "x!"}},
		{"sequence-inclusive", "{1...3}", []string{"1", "2", "3"}},
		{"sequence-padded", "file{01..03}", []string{"file01", "file02"}},
		{"sequence-chars", "{a..c}", []string{"a", "b"}},
		{"single-element-brace", "{a}", []string{"{a}"}},
		{"tilde", "~/src", []string{"/home/redox/src"}},
		{"tilde-pwd", "~+", []string{"/home/redox/src"}},
		{"tilde-oldpwd", "~-/x", []string{"/tmp/x"}},
		{"tilde-unknown", "~nobody", []string{"~nobody"}},
		{"tilde-quoted", "'~'", []string{"~"}},
		{"tilde-not-first", "a~", []string{"a~"}},
		{"single-quotes", "'$name @arr'", []string{"$name @arr"}},
		{"empty-quotes", "''", []string{""}},
		{"variable", "$name", []string{"world"}},
		{"braced-variable", "${name}s", []string{"worlds"}},
		{"quoted-variable", `"hello $name!"`, []string{"hello world!"}},
		{"missing-variable", "$missing", []string{""}},
		{"escaped-dollar", `\$name`, []string{"$name"}},
		{"array-variable", "@arr", []string{"a", "b", "c"}},
		{"quoted-array-variable", `"@arr"`, []string{"a b c"}},
		{"array-index", "@arr[1]", []string{"b"}},
		{"array-backward-index", "@arr[-1]", []string{"c"}},
		{"array-range", "@arr[0..2]", []string{"a", "b"}},
		{"array-selection-variable", "@arr[1..$n]", []string{"b", "c"}},
		{"array-range-overhanging", "@arr[1...9]", []string{"b", "c"}},
		{"array-range-to-max", "@arr[1...9223372036854775807]", []string{"b", "c"}},
		{"string-index", "$name[0]", []string{"w"}},
		{"string-range", "$name[1..=3]", []string{"orl"}},
		{"braced-selection", "${arr[2]}", []string{"c"}},
		{"map-key", "$m[x]", []string{"1"}},
		{"map-values", "@m", []string{"1", "2"}},
		{"array-literal", "[a $name {b,c}]", []string{"a", "world", "b", "c"}},
		{"array-literal-select", "[x y z][1]", []string{"y"}},
		{"process", "$(echo hi)", []string{"hi there x"}},
		{"quoted-process", `"$(echo hi)"`, []string{"hi there\nx"}},
		{"array-process", "@(ls)", []string{"a.txt", "b.txt"}},
		{"array-process-select", "@(ls)[0]", []string{"a.txt"}},
		{"arithmetic", "$((42))", []string{"42"}},
		{"string-method", "$to_uppercase($name)", []string{"WORLD"}},
		{"array-method", "@reverse(@arr)", []string{"c", "b", "a"}},
		{"method-selection", "@chars($name)[1..3]", []string{"o", "r"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))
			got := expandStrings(t, e, tc.word)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpandWord_singleQuotesAreIdempotent(t *testing.T) {
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))

	for _, text := range []string{"plain", "$name", "@arr[0]", "{a,b}", "*.go", "~", "$(ls)"} {
		got := expandStrings(t, e, "'"+text+"'")
		assert.Equal(t, []string{text}, got)
	}
}

func TestExpandWord_arithmetic(t *testing.T) {
	x := newTestExpander()
	var exprs []string
	x.ArithmeticFunc = func(expr string) (string, error) {
		exprs = append(exprs, expr)
		if expr == "bad" {
			return "", errors.New("syntax error")
		}
		return "6", nil
	}
	e := New(x, WithFs(afero.NewMemMapFs()))

	assert.Equal(t, []string{"6"}, expandStrings(t, e, "$(( $n * 2 ))"))
	assert.Equal(t, []string{"3 * 2"}, exprs)

	_, err := e.ExpandWord(context.Background(), "$((bad))")
	var arithErr *ArithmeticError
	require.ErrorAs(t, err, &arithErr)
	assert.Equal(t, "bad", arithErr.Expr)
}

func TestExpandWord_glob(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
		goldie.WithSubTestNameForDir(true),
	)

	cases := map[string]string{
		"matches":     "/src/*.go",
		"passthrough": "/src/*.rs",
		"class":       "/src/[ab].go",
		"quoted":      `"/src/*.go"`,
		"escaped":     `/src/\*.go`,
		"brace":       "{/src/a,/src/c}.*",
	}

	for tn, word := range cases {
		t.Run(tn, func(t *testing.T) {
			e := New(newTestExpander(), WithFs(newTestFs(t)))
			got := expandStrings(t, e, word)
			g.Assert(t, tn, []byte(strings.Join(got, "\n")+"\n"))
		})
	}
}

func TestExpandWord_globDisabled(t *testing.T) {
	cfg := config.Default().Expansion
	cfg.Glob = false
	e := New(newTestExpander(), WithFs(newTestFs(t)), WithConfig(cfg))

	assert.Equal(t, []string{"/src/*.go"}, expandStrings(t, e, "/src/*.go"))
}

func TestExpandWord_limits(t *testing.T) {
	cfg := config.Default().Expansion
	cfg.MaxBraceWords = 4
	cfg.MaxDepth = 2

	cases := []struct {
		name string
		word string
		want error
	}{
		{"product-at-limit", "{a,b}{1,2}", nil},
		{"product-over-limit", "{a,b,c}{1,2}", ErrTooManyWords},
		{"sequence-over-limit", "{1..10}", ErrTooManyWords},
		{"sequence-to-max-int", "{0...9223372036854775807}", ErrTooManyWords},
		{"sequence-full-int-span", "{-9223372036854775808..9223372036854775807}", ErrTooManyWords},
		{"sequence-full-int-span-inclusive", "{-9223372036854775808...9223372036854775807}", ErrTooManyWords},
		{"too-deep", "{a,{b,{c,d}}}", ErrTooDeep},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(newTestExpander(), WithFs(afero.NewMemMapFs()), WithConfig(cfg))
			_, err := e.ExpandWord(context.Background(), tc.word)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExpandWord_errors(t *testing.T) {
	cases := []struct {
		name   string
		word   string
		target interface{}
	}{
		{"unknown-method", "$nope($name)", new(*UnknownMethodError)},
		{"array-method-in-string-context", "$lines($name)", new(*ContextError)},
		{"string-method-in-array-context", "@len($name)", new(*ContextError)},
		{"missing-argument", "$starts_with($name)", new(*ArgCountError)},
		{"bad-regex", `$matches($name, "(")`, new(*RegexError)},
		{"index-out-of-range", "@arr[5]", new(*SelectError)},
		{"index-at-length", "@arr[$n]", new(*SelectError)},
		{"backward-index-out-of-range", "@arr[-4]", new(*SelectError)},
		{"reversed-range", "@arr[2..1]", new(*SelectError)},
		{"range-past-end", "@arr[$n..]", new(*SelectError)},
		{"string-index-out-of-range", "$name[5]", new(*SelectError)},
		{"key-on-array", "@arr[foo]", new(*SelectError)},
		{"failing-command", "$(false)", new(*CommandError)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))
			_, err := e.ExpandWord(context.Background(), tc.word)
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.target)
		})
	}
}

func TestExpandWord_unterminated(t *testing.T) {
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))

	for _, word := range []string{`"open`, "'open", "$(ls", "${name", "$len(x"} {
		_, err := e.ExpandWord(context.Background(), word)
		assert.Error(t, err, word)
	}
}

func TestExpandStatement(t *testing.T) {
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))

	values, err := e.ExpandStatement(context.Background(), "echo $name @arr {x,y}")
	require.NoError(t, err)

	var got []string
	for _, v := range values {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"echo", "world", "a", "b", "c", "x", "y"}, got)
}

func TestExpandStatement_aggregatesWordErrors(t *testing.T) {
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))

	values, err := e.ExpandStatement(context.Background(), "a $nope(x) b $nada(y) c")
	require.Error(t, err)

	var got []string
	for _, v := range values {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	require.Len(t, joined.Unwrap(), 2)

	var wordErr *WordError
	require.ErrorAs(t, err, &wordErr)
	assert.Equal(t, "$nope(x)", wordErr.Word)
	assert.Equal(t, 2, wordErr.Offset)

	var unknown *UnknownMethodError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestExpandStatement_interrupted(t *testing.T) {
	x := newTestExpander()
	x.Commands["sleep 10"] = vostest.Result{Err: fmt.Errorf("signal: %w", ErrInterrupted)}
	e := New(x, WithFs(afero.NewMemMapFs()))

	values, err := e.ExpandStatement(context.Background(), "a $(sleep 10) $(echo hi)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "sleep 10", cmdErr.Command)

	require.Len(t, values, 1)
	assert.Equal(t, "a", values[0].String())
	assert.Equal(t, []string{"sleep 10"}, x.Calls())
}

func TestExpandStatement_cancelled(t *testing.T) {
	x := newTestExpander()
	e := New(x, WithFs(afero.NewMemMapFs()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExpandStatement(ctx, "$(ls) $(echo hi)")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"ls"}, x.Calls())
}

func TestExpandString(t *testing.T) {
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()))

	got, err := e.ExpandString(context.Background(), `$name "two words" @arr[..2]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"world", "two words", "a", "b"}, got)

	_, err = e.ExpandString(context.Background(), "ok $nope(x)")
	assert.Error(t, err)
}

func TestEngine_logsEvents(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJsonLinesLogRecorder(&buf).NewSession()

	cfg := config.Default().Expansion
	cfg.MaxBraceWords = 2
	e := New(newTestExpander(), WithFs(newTestFs(t)), WithLogger(log), WithConfig(cfg))

	e.ExpandStatement(context.Background(), "/src/*.go /src/*.rs $(ls) {a,b,c} $nope(x)")

	report := logger.NewReport()
	require.NoError(t, logger.ReadJSONLinesLog(&buf, func(le *structpb.Struct) {
		report.Update(le)
	}))

	assert.Equal(t, 1, report.Events.Count(logger.EventStatement))
	assert.Equal(t, 1, report.Globs.Count("/src/*.go", "true"))
	assert.Equal(t, 1, report.Globs.Count("/src/*.rs", "false"))
	assert.Equal(t, 1, report.Commands.Count("ls", "ok"))
	assert.Equal(t, 1, report.Limits.Count("max_brace_words"))
	assert.Equal(t, 2, report.Events.Count(logger.EventError))
	assert.Equal(t, report.LogEntries, report.Sessions.Count(log.SessionID()))
}

func TestEngine_poolReturnsBuffers(t *testing.T) {
	pool := NewPool(4)
	e := New(newTestExpander(), WithFs(afero.NewMemMapFs()), WithPool(pool))

	expandStrings(t, e, "{a,b}{c,d}")
	assert.Equal(t, 2, pool.Idle())
}

func ExampleEngine_ExpandWord() {
	x := vostest.NewExpander().Set("name", "ion")
	e := New(x, WithFs(afero.NewMemMapFs()))

	values, _ := e.ExpandWord(context.Background(), "{hello,bye}_$name")
	for _, v := range values {
		fmt.Println(v)
	}
	// Output:
	// hello_ion
	// bye_ion
}
