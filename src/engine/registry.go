package engine

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Registry tracks the contexts currently live in a process. Parties share a
// process in the demo and tests, so the registry must be reset explicitly
// before a second, logically distinct context is reconstructed; two live
// contexts derived from the same parameters would otherwise alias under one
// identifier.
type Registry struct {
	contexts map[string]*Context
}

func NewRegistry() *Registry {
	return &Registry{contexts: make(map[string]*Context)}
}

// ContextID derives a stable identifier from the serialized parameters and
// capability set.
func ContextID(c *Context) (string, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("engine: context id: %w", err)
	}
	hasher := blake3.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)[:16]), nil
}

// Attach registers c and returns its identifier. Attaching a second distinct
// context under an identifier already in use is refused; the caller must
// Reset first.
func (r *Registry) Attach(c *Context) (string, error) {
	id, err := ContextID(c)
	if err != nil {
		return "", err
	}
	if prev, ok := r.contexts[id]; ok && prev != c {
		return "", fmt.Errorf("engine: context %s already live; reset the registry before reloading", id)
	}
	r.contexts[id] = c
	return id, nil
}

// Get returns the live context under id.
func (r *Registry) Get(id string) (*Context, bool) {
	c, ok := r.contexts[id]
	return c, ok
}

// Len returns the number of live contexts.
func (r *Registry) Len() int {
	return len(r.contexts)
}

// Reset drops every live context.
func (r *Registry) Reset() {
	r.contexts = make(map[string]*Context)
}
