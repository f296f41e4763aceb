package wire

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// Op is the kind of a device command.
type Op int

// The device commands.
const (
	OpStop Op = iota
	OpStart
	OpSetMemorySize
	OpDefineBlock
	OpDefineSequence
	OpAssignChannel
	OpSetPodLevels
	OpWriteConstant
)

var opNames = []string{
	"STOP",
	"START",
	"MEMORY",
	"BLOCK",
	"SEQUENCE",
	"ASSIGN",
	"LEVELS",
	"WRITE",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("OP(%d)", int(o))
	}

	return opNames[o]
}

// Command is one device call captured as a value.
type Command struct {
	Op       Op              `cbor:"1,keyasint" json:"op"`
	Channel  device.Channel  `cbor:"2,keyasint,omitempty" json:"channel,omitempty"`
	Pod      device.Pod      `cbor:"3,keyasint,omitempty" json:"pod,omitempty"`
	Start    timebase.Ticks  `cbor:"4,keyasint,omitempty" json:"start,omitempty"`
	Length   timebase.Ticks  `cbor:"5,keyasint,omitempty" json:"length,omitempty"`
	Level    bool            `cbor:"6,keyasint,omitempty" json:"level,omitempty"`
	High     float64         `cbor:"7,keyasint,omitempty" json:"high,omitempty"`
	Low      float64         `cbor:"8,keyasint,omitempty" json:"low,omitempty"`
	Block    Block           `cbor:"9,keyasint,omitempty" json:"block,omitempty"`
	Sequence []SequenceEntry `cbor:"10,keyasint,omitempty" json:"sequence,omitempty"`
}

// Stop returns a stop command.
func Stop() Command { return Command{Op: OpStop} }

// Start returns a start command.
func Start() Command { return Command{Op: OpStart} }

// SetMemorySize returns a memory-size command.
func SetMemorySize(size timebase.Ticks) Command {
	return Command{Op: OpSetMemorySize, Length: size}
}

// DefineBlock returns a block-definition command.
func DefineBlock(b Block) Command {
	return Command{Op: OpDefineBlock, Block: b}
}

// DefineSequence returns a sequence-definition command.
func DefineSequence(entries []SequenceEntry) Command {
	return Command{Op: OpDefineSequence, Sequence: entries}
}

// AssignChannel returns a channel-to-pod command.
func AssignChannel(ch device.Channel, pod device.Pod) Command {
	return Command{Op: OpAssignChannel, Channel: ch, Pod: pod}
}

// SetPodLevels returns a pod-voltage command.
func SetPodLevels(pod device.Pod, high, low float64) Command {
	return Command{Op: OpSetPodLevels, Pod: pod, High: high, Low: low}
}

// WriteConstant returns a constant-level write command.
func WriteConstant(
	ch device.Channel,
	start, length timebase.Ticks,
	level bool,
) Command {
	return Command{
		Op:      OpWriteConstant,
		Channel: ch,
		Start:   start,
		Length:  length,
		Level:   level,
	}
}

func (c Command) String() string {
	switch c.Op {
	case OpStop, OpStart:
		return c.Op.String()
	case OpSetMemorySize:
		return fmt.Sprintf("MEMORY %d", c.Length)
	case OpDefineBlock:
		return fmt.Sprintf("BLOCK %s @%d", c.Block.Name, c.Block.Start)
	case OpDefineSequence:
		parts := make([]string, len(c.Sequence))
		for i, e := range c.Sequence {
			parts[i] = fmt.Sprintf("%sx%d", e.Block, e.Repeat)
		}

		return "SEQUENCE " + strings.Join(parts, " ")
	case OpAssignChannel:
		return fmt.Sprintf("ASSIGN ch%d -> pod%d", c.Channel, c.Pod)
	case OpSetPodLevels:
		return fmt.Sprintf("LEVELS pod%d %gV/%gV", c.Pod, c.High, c.Low)
	case OpWriteConstant:
		level := "LOW"
		if c.Level {
			level = "HIGH"
		}

		return fmt.Sprintf("WRITE ch%d [%d,+%d) %s",
			c.Channel, c.Start, c.Length, level)
	}

	return c.Op.String()
}

// Apply issues the command on a device.
func Apply(d Device, c Command) error {
	switch c.Op {
	case OpStop:
		return d.Stop()
	case OpStart:
		return d.Start()
	case OpSetMemorySize:
		return d.SetMemorySize(c.Length)
	case OpDefineBlock:
		return d.DefineBlock(c.Block)
	case OpDefineSequence:
		return d.DefineSequence(c.Sequence)
	case OpAssignChannel:
		return d.AssignChannel(c.Channel, c.Pod)
	case OpSetPodLevels:
		return d.SetPodLevels(c.Pod, c.High, c.Low)
	case OpWriteConstant:
		return d.WriteConstant(c.Channel, c.Start, c.Length, c.Level)
	}

	log.Panicf("unknown command op %d", int(c.Op))

	return nil
}
