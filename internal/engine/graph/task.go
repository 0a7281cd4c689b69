package graph

import (
	"sync"

	"go.trai.ch/streetgraph/internal/core/domain"
)

// NodeTask represents one in-progress CacheNode request. It resolves once
// with the fully cached node or an error. Multiple callers may wait on the
// same task.
type NodeTask struct {
	key  string
	done chan struct{}
	once sync.Once

	node *domain.Node
	err  error
}

func newNodeTask(key string) *NodeTask {
	return &NodeTask{key: key, done: make(chan struct{})}
}

// Key returns the node key the task caches.
func (t *NodeTask) Key() string { return t.key }

// Done returns a channel closed when the task has resolved.
func (t *NodeTask) Done() <-chan struct{} { return t.done }

// Node returns the cached node after Done is closed, or nil on failure.
func (t *NodeTask) Node() *domain.Node { return t.node }

// Err returns the task error after Done is closed.
func (t *NodeTask) Err() error { return t.err }

func (t *NodeTask) resolve(node *domain.Node) {
	t.once.Do(func() {
		t.node = node
		close(t.done)
	})
}

func (t *NodeTask) fail(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}
