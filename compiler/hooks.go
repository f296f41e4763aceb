package compiler

import (
	"github.com/sarchlab/pulsegen/hooking"
)

// HookPosAdvisory marks an advisory being raised. The item is the *Error.
var HookPosAdvisory = &hooking.HookPos{Name: "Advisory"}

// HookPosCommand marks a command about to be sent to the device. The item is
// the wire.Command.
var HookPosCommand = &hooking.HookPos{Name: "Command"}

// HookPosCommit marks an update that reached the device. The item is a
// PassSummary.
var HookPosCommit = &hooking.HookPos{Name: "Commit"}

// HookPosRollback marks an update that was rejected and undone. The item is
// the *Error.
var HookPosRollback = &hooking.HookPos{Name: "Rollback"}

// PassSummary describes one committed update.
type PassSummary struct {
	ID       string
	Mode     Mode
	Commands int
	Updated  []int
}
