// Package wire is the boundary between the compiler and the pattern generator
// hardware. The compiler only issues the imperative commands declared here.
package wire

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// Block is a named region of device memory that starts at a given tick and
// runs up to the start of the next block or the end of memory.
type Block struct {
	Name  string         `cbor:"1,keyasint" json:"name"`
	Start timebase.Ticks `cbor:"2,keyasint" json:"start"`
}

// SequenceEntry plays a block a number of times.
type SequenceEntry struct {
	Block  string `cbor:"1,keyasint" json:"block"`
	Repeat int64  `cbor:"2,keyasint" json:"repeat"`
}

// Device is a pattern generator as seen by the compiler. No method returns
// anything but success or failure.
type Device interface {
	// Stop stops the pattern output.
	Stop() error

	// Start starts the pattern output.
	Start() error

	// SetMemorySize sets the number of ticks of pattern memory in use.
	SetMemorySize(size timebase.Ticks) error

	// DefineBlock defines or moves a block.
	DefineBlock(b Block) error

	// DefineSequence sets the order in which blocks are played.
	DefineSequence(entries []SequenceEntry) error

	// AssignChannel connects a channel to a pod.
	AssignChannel(ch device.Channel, pod device.Pod) error

	// SetPodLevels sets the output voltages of a pod.
	SetPodLevels(pod device.Pod, high, low float64) error

	// WriteConstant sets the ticks [start, start+length) of a channel to a
	// level.
	WriteConstant(
		ch device.Channel,
		start, length timebase.Ticks,
		level bool,
	) error
}
