package hooking

import (
	"sync"
)

// CountHook counts how many times each hook position is triggered.
type CountHook struct {
	lock     sync.Mutex
	posNames []string
	count    map[string]uint64
}

// NewCountHook creates a new CountHook.
func NewCountHook() *CountHook {
	return &CountHook{
		count: make(map[string]uint64),
	}
}

// Func counts the invocation.
func (h *CountHook) Func(ctx HookCtx) {
	h.lock.Lock()
	defer h.lock.Unlock()

	_, ok := h.count[ctx.Pos.Name]
	if !ok {
		h.posNames = append(h.posNames, ctx.Pos.Name)
	}

	h.count[ctx.Pos.Name]++
}

// PosNames returns the names of the positions seen, in first-seen order.
func (h *CountHook) PosNames() []string {
	h.lock.Lock()
	defer h.lock.Unlock()

	return append([]string(nil), h.posNames...)
}

// Count returns how many times the named position was triggered.
func (h *CountHook) Count(posName string) uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.count[posName]
}
