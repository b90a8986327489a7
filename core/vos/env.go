package vos

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/redox-os/ion-sub003/core/assignments"
	"github.com/redox-os/ion-sub003/core/ranges"
	"github.com/redox-os/ion-sub003/core/types"
)

// Well known variables.
const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
	EnvPath   = "PATH"
	EnvShell  = "SHELL"
)

// EnvironFetcher is anything that can list "key=value" pairs.
type EnvironFetcher interface {
	Environ() []string
}

// EnvList adapts a plain list of "key=value" pairs.
type EnvList []string

// Environ implements EnvironFetcher.
func (e EnvList) Environ() []string {
	return e
}

// Vars is a stack of variable scopes. Lookups walk from the innermost scope
// outwards.
type Vars struct {
	rw     sync.RWMutex
	scopes []map[string]types.Value
}

// NewVars creates an empty store with a single global scope.
func NewVars() *Vars {
	return &Vars{scopes: []map[string]types.Value{{}}}
}

// NewVarsFrom creates a store holding a copy of the variables in src.
func NewVarsFrom(src EnvironFetcher) *Vars {
	return NewVarsFromEnvList(src.Environ())
}

// NewVarsFromEnvList creates a store from "key=value" pairs. A pair without
// '=' sets the key to the empty string.
func NewVarsFromEnvList(environ []string) *Vars {
	out := NewVars()
	for _, e := range environ {
		key, value := splitPair(e)
		out.Set(key, types.Str(value))
	}
	return out
}

func splitPair(e string) (string, string) {
	split := strings.SplitN(e, "=", 2)
	key, value := split[0], ""
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// scopeOf returns the innermost scope defining name. Callers hold the lock.
func (v *Vars) scopeOf(name string) map[string]types.Value {
	for i := len(v.scopes) - 1; i >= 0; i-- {
		if _, ok := v.scopes[i][name]; ok {
			return v.scopes[i]
		}
	}
	return nil
}

func (v *Vars) innermost() map[string]types.Value {
	if len(v.scopes) == 0 {
		v.scopes = []map[string]types.Value{{}}
	}
	return v.scopes[len(v.scopes)-1]
}

// Set updates name in the scope that defines it, or creates it in the
// innermost scope.
func (v *Vars) Set(name string, value types.Value) {
	v.rw.Lock()
	defer v.rw.Unlock()

	if scope := v.scopeOf(name); scope != nil {
		scope[name] = value
		return
	}
	v.innermost()[name] = value
}

// SetLocal creates or replaces name in the innermost scope, shadowing any
// outer definition.
func (v *Vars) SetLocal(name string, value types.Value) {
	v.rw.Lock()
	defer v.rw.Unlock()
	v.innermost()[name] = value
}

// Lookup returns the value of name.
func (v *Vars) Lookup(name string) (types.Value, bool) {
	v.rw.RLock()
	defer v.rw.RUnlock()

	if scope := v.scopeOf(name); scope != nil {
		return scope[name], true
	}
	return types.None, false
}

// Unset removes the innermost definition of name, reporting whether there
// was one.
func (v *Vars) Unset(name string) bool {
	v.rw.Lock()
	defer v.rw.Unlock()

	scope := v.scopeOf(name)
	if scope == nil {
		return false
	}
	delete(scope, name)
	return true
}

// Push opens a new innermost scope.
func (v *Vars) Push() {
	v.rw.Lock()
	defer v.rw.Unlock()
	v.scopes = append(v.scopes, map[string]types.Value{})
}

// Pop discards the innermost scope. The global scope is never popped.
func (v *Vars) Pop() bool {
	v.rw.Lock()
	defer v.rw.Unlock()

	if len(v.scopes) <= 1 {
		return false
	}
	v.scopes = v.scopes[:len(v.scopes)-1]
	return true
}

// Depth is the number of open scopes.
func (v *Vars) Depth() int {
	v.rw.RLock()
	defer v.rw.RUnlock()
	return len(v.scopes)
}

// Names returns the sorted names of every visible variable.
func (v *Vars) Names() []string {
	v.rw.RLock()
	defer v.rw.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, scope := range v.scopes {
		for name := range scope {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Setenv sets a string variable.
func (v *Vars) Setenv(key, value string) error {
	v.Set(key, types.Str(value))
	return nil
}

// Unsetenv removes a variable.
func (v *Vars) Unsetenv(key string) error {
	v.Unset(key)
	return nil
}

// LookupEnv returns the string form of a variable.
func (v *Vars) LookupEnv(key string) (string, bool) {
	val, ok := v.Lookup(key)
	if !ok {
		return "", false
	}
	return val.String(), true
}

// Getenv returns the string form of a variable, empty if unset.
func (v *Vars) Getenv(key string) string {
	val, _ := v.LookupEnv(key)
	return val
}

// UserHomeDir returns $HOME.
func (v *Vars) UserHomeDir() (string, error) {
	if home, ok := v.LookupEnv(EnvHome); ok {
		return home, nil
	}
	return "", errors.New("$HOME is not defined")
}

// ExpandEnv replaces $var and ${var} in s.
func (v *Vars) ExpandEnv(s string) string {
	return os.Expand(s, v.Getenv)
}

// Environ lists the visible string variables as sorted "key=value" pairs.
// Arrays, maps and functions aren't exported.
func (v *Vars) Environ() []string {
	var env []string
	for _, name := range v.Names() {
		val, ok := v.Lookup(name)
		if !ok {
			continue
		}
		switch val.Kind() {
		case types.KindStr, types.KindAlias:
			env = append(env, fmt.Sprintf("%s=%s", name, val.String()))
		}
	}
	return env
}

// Clearenv drops every scope and variable.
func (v *Vars) Clearenv() {
	v.rw.Lock()
	defer v.rw.Unlock()
	v.scopes = []map[string]types.Value{{}}
}

// IndexError is returned when an indexed assignment can't be applied.
type IndexError struct {
	Name   string
	Index  string
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Name, e.Index, e.Reason)
}

// Assign stores the expanded value of an assignment action, type checking
// it against the key and combining it with the current value using the
// action's operator.
func (v *Vars) Assign(action assignments.Action, value types.Value) error {
	key := action.Key

	if key.Kind.Kind == assignments.Indexed {
		return v.assignIndex(key, action.Op, value)
	}

	checked, err := assignments.Check(value, key.Kind)
	if err != nil {
		var typeErr *assignments.TypeError
		if errors.As(err, &typeErr) && typeErr.Key == "" {
			typeErr.Key = key.Name
		}
		return err
	}

	v.rw.Lock()
	defer v.rw.Unlock()

	scope := v.scopeOf(key.Name)
	current := types.None
	if scope != nil {
		current = scope[key.Name]
	} else {
		scope = v.innermost()
	}

	next, err := action.Op.Apply(current, checked)
	if err != nil {
		return fmt.Errorf("%s: %w", key.Name, err)
	}
	scope[key.Name] = next
	return nil
}

func (v *Vars) assignIndex(key assignments.Key, op assignments.Operator, value types.Value) error {
	v.rw.Lock()
	defer v.rw.Unlock()

	scope := v.scopeOf(key.Name)
	if scope == nil {
		return &IndexError{Name: key.Name, Index: key.Index, Reason: "variable is not defined"}
	}
	current := scope[key.Name]

	if m := current.Map(); m != nil {
		old, _ := m.Get(key.Index)
		next, err := op.Apply(old, value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		m.Set(key.Index, next)
		return nil
	}

	if current.Kind() != types.KindArray {
		return &IndexError{Name: key.Name, Index: key.Index, Reason: "not an array or map"}
	}

	n, err := strconv.Atoi(key.Index)
	if err != nil {
		return &IndexError{Name: key.Name, Index: key.Index, Reason: "index is not an integer"}
	}
	items := append([]types.Value(nil), current.Items()...)
	i, ok := ranges.NewIndex(n).Resolve(len(items))
	if !ok || i >= len(items) {
		return &IndexError{Name: key.Name, Index: key.Index, Reason: "index out of range"}
	}

	items[i], err = op.Apply(items[i], value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	scope[key.Name] = types.Array(items...)
	return nil
}
