package cmd

import (
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/tliron/commonlog"
)

// logHook reports what the compiler does through the CLI logger.
type logHook struct {
	log commonlog.Logger
}

func (h *logHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case compiler.HookPosAdvisory:
		h.log.Warningf("%s", ctx.Item)
	case compiler.HookPosRollback:
		h.log.Errorf("update rejected: %s", ctx.Item)
	case compiler.HookPosCommit:
		s := ctx.Item.(compiler.PassSummary)
		h.log.Debugf("%s pass %s: %d commands, pulses %v updated",
			s.Mode, s.ID, s.Commands, s.Updated)
	case compiler.HookPosCommand:
		h.log.Debugf("%s", ctx.Item)
	}
}
