package datarecording

import (
	"strconv"
	"strings"

	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/sarchlab/pulsegen/wire"
)

// The tables written by a PassRecorder.
const (
	PassTable     = "passes"
	AdvisoryTable = "advisories"
	CommandTable  = "commands"
	RollbackTable = "rollbacks"
)

// PassEntry is a committed update.
type PassEntry struct {
	Pass     string
	Mode     string
	Commands int
	Updated  string
}

// AdvisoryEntry is an advisory raised by the compiler.
type AdvisoryEntry struct {
	Pass     string
	Code     string
	Pulse    int
	Function string
	Message  string
}

// CommandEntry is a command sent to the device.
type CommandEntry struct {
	Pass    string
	Seq     int
	Op      string
	Channel int
	Pod     int
	Start   int64
	Length  int64
	Level   bool
	Text    string
}

// RollbackEntry is an update that was rejected.
type RollbackEntry struct {
	Pass    string
	Code    string
	Kind    string
	Pulse   int
	Message string
}

// PassRecorder is a hook that records compile passes, advisories, device
// commands and rollbacks.
type PassRecorder struct {
	recorder DataRecorder
	seq      int
}

// NewPassRecorder creates a PassRecorder and its tables.
func NewPassRecorder(recorder DataRecorder) *PassRecorder {
	recorder.CreateTable(PassTable, PassEntry{})
	recorder.CreateTable(AdvisoryTable, AdvisoryEntry{})
	recorder.CreateTable(CommandTable, CommandEntry{})
	recorder.CreateTable(RollbackTable, RollbackEntry{})

	return &PassRecorder{recorder: recorder}
}

// Func records the hook item.
func (r *PassRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case compiler.HookPosCommit:
		r.recordPass(ctx.Item.(compiler.PassSummary))
	case compiler.HookPosAdvisory:
		r.recordAdvisory(ctx.Pass, ctx.Item.(*compiler.Error))
	case compiler.HookPosCommand:
		r.recordCommand(ctx.Pass, ctx.Item.(wire.Command))
	case compiler.HookPosRollback:
		r.recordRollback(ctx.Pass, ctx.Item.(*compiler.Error))
	}
}

func (r *PassRecorder) recordPass(s compiler.PassSummary) {
	updated := make([]string, len(s.Updated))
	for i, num := range s.Updated {
		updated[i] = strconv.Itoa(num)
	}

	r.recorder.InsertData(PassTable, PassEntry{
		Pass:     s.ID,
		Mode:     s.Mode.String(),
		Commands: s.Commands,
		Updated:  strings.Join(updated, ","),
	})
}

func pulseNum(e *compiler.Error) int {
	if !e.HasPulse {
		return -1
	}

	return e.Pulse
}

func (r *PassRecorder) recordAdvisory(pass string, e *compiler.Error) {
	function := ""
	if e.Function != device.NoFunction {
		function = e.Function.String()
	}

	r.recorder.InsertData(AdvisoryTable, AdvisoryEntry{
		Pass:     pass,
		Code:     e.Code.Error(),
		Pulse:    pulseNum(e),
		Function: function,
		Message:  e.Error(),
	})
}

func (r *PassRecorder) recordCommand(pass string, cmd wire.Command) {
	r.seq++

	r.recorder.InsertData(CommandTable, CommandEntry{
		Pass:    pass,
		Seq:     r.seq,
		Op:      cmd.Op.String(),
		Channel: int(cmd.Channel),
		Pod:     int(cmd.Pod),
		Start:   int64(cmd.Start),
		Length:  int64(cmd.Length),
		Level:   cmd.Level,
		Text:    cmd.String(),
	})
}

func (r *PassRecorder) recordRollback(pass string, e *compiler.Error) {
	r.recorder.InsertData(RollbackTable, RollbackEntry{
		Pass:    pass,
		Code:    e.Code.Error(),
		Kind:    e.Kind().String(),
		Pulse:   pulseNum(e),
		Message: e.Error(),
	})
}

// Flush writes the buffered records.
func (r *PassRecorder) Flush() {
	r.recorder.Flush()
}

// Tables returns the names of the tables in a recording.
func Tables() []string {
	return []string{
		ExecTable, PassTable, AdvisoryTable, CommandTable, RollbackTable,
	}
}

// MapTables prepares a reader for the tables of a PassRecorder.
func MapTables(reader DataReader) {
	reader.MapTable(ExecTable, ExecInfo{})
	reader.MapTable(PassTable, PassEntry{})
	reader.MapTable(AdvisoryTable, AdvisoryEntry{})
	reader.MapTable(CommandTable, CommandEntry{})
	reader.MapTable(RollbackTable, RollbackEntry{})
}
