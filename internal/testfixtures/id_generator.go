package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields a predictable "prefix-1", "prefix-2", ... sequence so
// tests can assert on the exact identifiers a service minted.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    uint64
}

// NewIDGenerator returns a generator for the given prefix, defaulting to
// "id" when the prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// NextFunc adapts the generator to the id-func injection point of the
// services. A nil generator yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetPrefix changes the prefix of subsequently minted identifiers.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	g.prefix = prefix
	g.mu.Unlock()
}

// SetCounter rewinds or forwards the sequence; the next identifier carries
// counter+1.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	g.seq = counter
	g.mu.Unlock()
}
