package environ

import (
	"sort"
	"strings"
)

// Env is an immutable view of a process environment. Methods that change
// it return a new Env and leave the receiver untouched.
//
// Where the platform treats variable names case-insensitively, so does Env:
// Get("PATH") finds an entry spelled Path, and the spelling of the first
// entry seen is kept for List.
type Env struct {
	vars map[string]entry
	fold bool
}

type entry struct {
	key   string
	value string
}

// FromList builds an Env from KEY=VALUE entries such as os.Environ().
// Entries without '=' are ignored; later duplicates win.
func FromList(list []string) Env {
	return fromList(list, foldCase)
}

func fromList(list []string, fold bool) Env {
	e := Env{vars: make(map[string]entry, len(list)), fold: fold}
	for _, kv := range list {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		e.set(key, value)
	}
	return e
}

// FromMap copies m into a new Env.
func FromMap(m map[string]string) Env {
	e := Env{vars: make(map[string]entry, len(m)), fold: foldCase}
	for k, v := range m {
		e.set(k, v)
	}
	return e
}

func (e Env) Get(key string) string {
	return e.vars[e.canon(key)].value
}

func (e Env) Lookup(key string) (string, bool) {
	ent, ok := e.vars[e.canon(key)]
	return ent.value, ok
}

func (e Env) Len() int {
	return len(e.vars)
}

// With returns a copy of e with key set to value.
func (e Env) With(key, value string) Env {
	next := e.clone(1)
	next.set(key, value)
	return next
}

// Without returns a copy of e lacking key.
func (e Env) Without(key string) Env {
	k := e.canon(key)
	if _, ok := e.vars[k]; !ok {
		return e
	}
	next := e.clone(0)
	delete(next.vars, k)
	return next
}

// Keys returns the variable names in sorted order.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for _, ent := range e.vars {
		keys = append(keys, ent.key)
	}
	sort.Strings(keys)
	return keys
}

// List renders the environment as sorted KEY=VALUE entries for exec.
func (e Env) List() []string {
	out := make([]string, 0, len(e.vars))
	for _, k := range e.Keys() {
		out = append(out, k+"="+e.Get(k))
	}
	return out
}

func (e *Env) set(key, value string) {
	k := e.canon(key)
	if old, ok := e.vars[k]; ok {
		key = old.key
	}
	e.vars[k] = entry{key: key, value: value}
}

func (e Env) canon(key string) string {
	if e.fold || foldCase {
		return strings.ToUpper(key)
	}
	return key
}

func (e Env) clone(extra int) Env {
	next := Env{vars: make(map[string]entry, len(e.vars)+extra), fold: e.fold}
	for k, v := range e.vars {
		next.vars[k] = v
	}
	return next
}
