// Package hooking lets observers attach to the compiler without the compiler
// knowing about logging, recording or tracing.
package hooking

// HookPos names a point in a compile pass where hooks are called, such as
// an issued command or a raised advisory.
type HookPos struct {
	Name string
}

// HookCtx describes one hook call.
type HookCtx struct {
	// Domain is the object that called the hook.
	Domain Hookable

	// Pos is where in the pass the call comes from.
	Pos *HookPos

	// Item is what happened. Its type depends on Pos.
	Item interface{}

	// Pass is the ID of the compile pass the item belongs to. It is empty
	// for calls made outside of a pass.
	Pass string
}

// Hookable is an object hooks can attach to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase keeps the hooks of a Hookable in attach order.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the attached hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook attaches a hook. Attaching the same hook twice panics, since
// every item would be observed twice.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); !isFunc {
		for _, attached := range h.hooks {
			if attached == hook {
				panic("duplicated hook")
			}
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls every attached hook in attach order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
