package vos

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/expand"
	"github.com/redox-os/ion-sub003/core/types"
)

func newTestShell() *Shell {
	vars := NewVarsFromEnvList([]string{
		"HOME=/home/redox",
		"PWD=/home/redox/src",
		"OLDPWD=/tmp",
		"n=6",
	})
	return NewShell(vars, config.Default().Playground)
}

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestShell_Tilde(t *testing.T) {
	s := newTestShell()

	cases := map[string]string{
		"~":                      "/home/redox",
		"~+":                     "/home/redox/src",
		"~-":                     "/tmp",
		"~no_such_user_3f9a2c1b": "~no_such_user_3f9a2c1b",
		"plain":                  "plain",
	}
	for fragment, want := range cases {
		assert.Equal(t, want, s.Tilde(fragment), fragment)
	}

	s.Vars.Unset(EnvHome)
	s.Home = "/configured"
	assert.Equal(t, "/configured", s.Tilde("~"))

	s.Vars.Unset(EnvOldPWD)
	assert.Equal(t, "~-", s.Tilde("~-"))
}

func TestShell_Variable(t *testing.T) {
	s := newTestShell()
	s.Vars.Set("arr", types.Strings("a", "b"))

	v, ok := s.Variable("n", false)
	require.True(t, ok)
	assert.Equal(t, "6", v.String())

	v, ok = s.Variable("arr", true)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v.Words())

	_, ok = s.Variable("missing", false)
	assert.False(t, ok)

	v, ok = s.Variable("$", false)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(os.Getpid()), v.String())
}

func TestShell_Arithmetic(t *testing.T) {
	s := newTestShell()

	cases := map[string]string{
		"1 + 2 * 3":   "7",
		"n * 2":       "12",
		"(n - 1) % 4": "1",
		"10 / 3":      "3",
		"-5 + 2":      "-3",
		"1 << 4":      "16",
		"undefined":   "0",
	}
	for expr, want := range cases {
		got, err := s.Arithmetic(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, want, got, expr)
	}

	for _, expr := range []string{"1 +", "1 / 0", ""} {
		_, err := s.Arithmetic(expr)
		assert.Error(t, err, expr)
	}
}

func TestShell_Command(t *testing.T) {
	requireCommand(t, "printf")
	s := newTestShell()
	ctx := context.Background()

	out, err := s.Command(ctx, `printf 'a b\nc\n\n'`, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out)

	out, err = s.Command(ctx, `printf 'a b\nc\n\n'`, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "c"}, out)

	out, err = s.Command(ctx, `printf '%s' $n`, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, out)

	out, err = s.Command(ctx, "   ", false)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = s.Command(ctx, "no-such-command-3f9a2c1b", false)
	assert.Error(t, err)

	_, err = s.Command(ctx, `printf '\377'`, false)
	assert.Error(t, err)
}

func TestShell_CommandTimeout(t *testing.T) {
	requireCommand(t, "sleep")
	s := newTestShell()
	s.Timeout = 50 * time.Millisecond

	_, err := s.Command(context.Background(), "sleep 5", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, expand.ErrInterrupted), err)
}

func TestShell_CommandCancelled(t *testing.T) {
	requireCommand(t, "sleep")
	s := newTestShell()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Command(ctx, "sleep 5", false)
	assert.ErrorIs(t, err, expand.ErrInterrupted)
}

func TestShell_expandEngine(t *testing.T) {
	s := newTestShell()
	e := expand.New(s)

	values, err := e.ExpandWord(context.Background(), "~/$((n + 1))")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "/home/redox/7", values[0].String())
}
