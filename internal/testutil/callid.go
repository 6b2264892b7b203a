package testutil

import (
	"fmt"
	"sync"
)

// SequentialCallIDs generates "<prefix>-1", "<prefix>-2", ... forever.
//
// Unlike runtime.FixedGenerator, which panics once its list is exhausted,
// this never runs out, so scenarios need not declare their call count. The
// same scenario always produces the same ids, which keeps golden traces
// byte-identical.
//
// Safe for concurrent use.
type SequentialCallIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialCallIDs creates a generator. An empty prefix means "call".
func NewSequentialCallIDs(prefix string) *SequentialCallIDs {
	if prefix == "" {
		prefix = "call"
	}
	return &SequentialCallIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialCallIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialCallIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
