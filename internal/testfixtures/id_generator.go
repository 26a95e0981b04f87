package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields deterministic member identifiers.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator returns a generator producing "<prefix>-1", "<prefix>-2"...
// An empty prefix means "member".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "member"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next for injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// CodeGenerator yields six-digit room codes in ascending order.
type CodeGenerator struct {
	mu   sync.Mutex
	next int
}

// NewCodeGenerator starts the sequence at first.
func NewCodeGenerator(first int) *CodeGenerator {
	return &CodeGenerator{next: first}
}

// Next returns the next code, wrapping after 999999.
func (g *CodeGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	code := fmt.Sprintf("%06d", g.next%1000000)
	g.next++
	return code
}
