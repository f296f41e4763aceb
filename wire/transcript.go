package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// Canonical encoding keeps transcripts of the same program byte-identical.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}

	cborEncMode = em
}

// Transcript records every command sent to a device. If it wraps another
// device, commands are forwarded after being recorded.
type Transcript struct {
	inner    Device
	commands []Command
}

// NewTranscript creates a transcript in front of inner, which may be nil.
func NewTranscript(inner Device) *Transcript {
	return &Transcript{inner: inner}
}

// Commands returns the recorded commands.
func (t *Transcript) Commands() []Command {
	return t.commands
}

// Reset drops the recorded commands.
func (t *Transcript) Reset() {
	t.commands = nil
}

func (t *Transcript) record(c Command) error {
	t.commands = append(t.commands, c)

	if t.inner == nil {
		return nil
	}

	return Apply(t.inner, c)
}

// Stop records and forwards a stop.
func (t *Transcript) Stop() error {
	return t.record(Stop())
}

// Start records and forwards a start.
func (t *Transcript) Start() error {
	return t.record(Start())
}

// SetMemorySize records and forwards a memory size change.
func (t *Transcript) SetMemorySize(size timebase.Ticks) error {
	return t.record(SetMemorySize(size))
}

// DefineBlock records and forwards a block definition.
func (t *Transcript) DefineBlock(b Block) error {
	return t.record(DefineBlock(b))
}

// DefineSequence records and forwards a sequence definition.
func (t *Transcript) DefineSequence(entries []SequenceEntry) error {
	return t.record(DefineSequence(entries))
}

// AssignChannel records and forwards a channel assignment.
func (t *Transcript) AssignChannel(ch device.Channel, pod device.Pod) error {
	return t.record(AssignChannel(ch, pod))
}

// SetPodLevels records and forwards a pod level change.
func (t *Transcript) SetPodLevels(pod device.Pod, high, low float64) error {
	return t.record(SetPodLevels(pod, high, low))
}

// WriteConstant records and forwards a constant write.
func (t *Transcript) WriteConstant(
	ch device.Channel,
	start, length timebase.Ticks,
	level bool,
) error {
	return t.record(WriteConstant(ch, start, length, level))
}

// MarshalCommands serializes commands to CBOR.
func MarshalCommands(commands []Command) ([]byte, error) {
	return cborEncMode.Marshal(commands)
}

// UnmarshalCommands deserializes commands from CBOR.
func UnmarshalCommands(data []byte) ([]Command, error) {
	var commands []Command
	if err := cbor.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("wire: unmarshal commands: %w", err)
	}

	return commands, nil
}

// Replay applies recorded commands to a device, stopping at the first
// failure.
func Replay(d Device, commands []Command) error {
	for i, c := range commands {
		if err := Apply(d, c); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, c, err)
		}
	}

	return nil
}
