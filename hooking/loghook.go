package hooking

import (
	"log"
)

// LogHook prints every hook invocation at the selected positions.
type LogHook struct {
	*log.Logger

	positions map[*HookPos]bool
}

// NewLogHook creates a LogHook. With no positions given, all positions are
// logged.
func NewLogHook(logger *log.Logger, positions ...*HookPos) *LogHook {
	h := &LogHook{
		Logger:    logger,
		positions: make(map[*HookPos]bool),
	}

	for _, p := range positions {
		h.positions[p] = true
	}

	return h
}

// Func logs the item of the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	if len(h.positions) > 0 && !h.positions[ctx.Pos] {
		return
	}

	if ctx.Pass != "" {
		h.Printf("[%s] %v (pass %s)", ctx.Pos.Name, ctx.Item, ctx.Pass)
		return
	}

	h.Printf("[%s] %v", ctx.Pos.Name, ctx.Item)
}
