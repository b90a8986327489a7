package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runRootIn(t, t.TempDir(), stdin, args...)
}

func runRootIn(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()

	showWords = false
	eventSession = ""
	eventFilter = ""

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	t.Cleanup(func() {
		showWords = false
		eventSession = ""
		eventFilter = ""
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExpandCommand(t *testing.T) {
	out, _, err := runRoot(t, "echo {a,b}c; echo [1 2]\necho '$x'\n", "expand")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`["echo" "ac" "bc"]`,
		`["echo" "1" "2"]`,
		`["echo" "$x"]`,
		"",
	}, "\n"), out)
}

func TestExpandCommand_errors(t *testing.T) {
	out, errOut, err := runRoot(t, "echo $nope(x)\necho ok\n", "expand")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 statement(s) failed")
	assert.Contains(t, errOut, "byte 0")
	assert.Equal(t, `["echo" "ok"]`+"\n", out)
}

func TestSplitCommand(t *testing.T) {
	out, _, err := runRoot(t, "a && b || c &\n", "split")
	require.NoError(t, err)
	assert.Equal(t, "\"a\"\tand\n\"b\"\tor\n\"c\"\tbackground\n", out)

	out, _, err = runRoot(t, "ls -l $dir\n", "split", "--words")
	require.NoError(t, err)
	assert.Equal(t, "0\tplain\tls\n3\tplain\t-l\n6\tcomposite\t$dir\n", out)
}

func TestMethodsCommand(t *testing.T) {
	out, _, err := runRoot(t, "", "methods")
	require.NoError(t, err)
	assert.Contains(t, out, "basename")
	assert.Contains(t, out, "graphemes")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	_, errOut, err := runRootIn(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Writing default config.yaml")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.Contains(t, errOut, filepath.Join(dir, "events.log"))

	_, errOut, err = runRootIn(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Using existing config.yaml")
}

func TestEventsCommands(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runRootIn(t, dir, "", "init")
	require.NoError(t, err)

	_, _, err = runRootIn(t, dir, "echo a\necho $nope(x)\n", "expand")
	require.Error(t, err)

	out, _, err := runRootIn(t, dir, "", "events", "list", "--event", "statement")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\tstatement\t")
	assert.Contains(t, lines[0], `"statement":"echo a"`)
	assert.Contains(t, lines[1], `"statement":"echo $nope(x)"`)

	session := strings.SplitN(lines[0], "\t", 2)[0]
	require.NotEmpty(t, session)

	out, _, err = runRootIn(t, dir, "", "events", "list", "--session", session, "--event", "error")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\terror\t"), out)
	assert.Contains(t, out, `"word":"$nope(x)"`)

	out, _, err = runRootIn(t, dir, "", "events", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "log_entries: 3")

	out, _, err = runRootIn(t, dir, "", "events", "report", "--session", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "log_entries: 0")
}
