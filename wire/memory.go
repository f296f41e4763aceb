package wire

import (
	"fmt"
	"sort"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// Memory is an in-process model of a pattern generator. It keeps the bit
// pattern of every channel and checks every command against the device
// limits, so compiled programs can be inspected without hardware.
type Memory struct {
	limits device.Limits

	size       timebase.Ticks
	channels   [][]bool
	podChannel map[device.Pod]device.Channel
	podLevels  map[device.Pod][2]float64
	blocks     map[string]Block
	sequence   []SequenceEntry
	running    bool

	numWrites int
}

// NewMemory creates a simulated device with the given limits.
func NewMemory(limits device.Limits) *Memory {
	return &Memory{
		limits:     limits,
		channels:   make([][]bool, limits.MaxChannels),
		podChannel: make(map[device.Pod]device.Channel),
		podLevels:  make(map[device.Pod][2]float64),
		blocks:     make(map[string]Block),
	}
}

// Stop stops the pattern output.
func (m *Memory) Stop() error {
	m.running = false
	return nil
}

// Start starts the pattern output.
func (m *Memory) Start() error {
	if m.size == 0 {
		return fmt.Errorf("cannot start without pattern memory")
	}

	m.running = true

	return nil
}

// SetMemorySize resizes every channel, keeping the existing bits.
func (m *Memory) SetMemorySize(size timebase.Ticks) error {
	if size <= 0 || int64(size) > m.limits.MaxPulserBits {
		return fmt.Errorf("memory size %d out of range", size)
	}

	for i, bits := range m.channels {
		resized := make([]bool, size)
		copy(resized, bits)
		m.channels[i] = resized
	}

	m.size = size

	return nil
}

// DefineBlock defines or moves a block.
func (m *Memory) DefineBlock(b Block) error {
	if b.Name == "" {
		return fmt.Errorf("block without name")
	}

	if b.Start < 0 || b.Start >= m.size {
		return fmt.Errorf("block %s starts at %d, outside of memory of %d",
			b.Name, b.Start, m.size)
	}

	m.blocks[b.Name] = b

	return nil
}

// DefineSequence sets the block sequence.
func (m *Memory) DefineSequence(entries []SequenceEntry) error {
	for _, e := range entries {
		if _, ok := m.blocks[e.Block]; !ok {
			return fmt.Errorf("sequence refers to unknown block %s", e.Block)
		}

		if e.Repeat < 1 || e.Repeat > m.limits.MaxBlockRepeats {
			return fmt.Errorf("block %s repeated %d times", e.Block, e.Repeat)
		}
	}

	m.sequence = append([]SequenceEntry(nil), entries...)

	return nil
}

// AssignChannel connects a channel to a pod.
func (m *Memory) AssignChannel(ch device.Channel, pod device.Pod) error {
	if !m.limits.ValidChannel(ch) {
		return fmt.Errorf("channel %d does not exist", ch)
	}

	if !m.limits.ValidPod(pod) {
		return fmt.Errorf("pod %d does not exist", pod)
	}

	m.podChannel[pod] = ch

	return nil
}

// SetPodLevels sets the output voltages of a pod.
func (m *Memory) SetPodLevels(pod device.Pod, high, low float64) error {
	if !m.limits.ValidPod(pod) {
		return fmt.Errorf("pod %d does not exist", pod)
	}

	// Inverted pods are driven with high below low.
	h, l := high, low
	if h < l {
		h, l = l, h
	}

	if !m.limits.ValidLevels(h, l) {
		return fmt.Errorf("levels %gV/%gV not allowed for pod %d",
			high, low, pod)
	}

	m.podLevels[pod] = [2]float64{high, low}

	return nil
}

// WriteConstant sets a range of a channel to a level.
func (m *Memory) WriteConstant(
	ch device.Channel,
	start, length timebase.Ticks,
	level bool,
) error {
	if !m.limits.ValidChannel(ch) {
		return fmt.Errorf("channel %d does not exist", ch)
	}

	if start < 0 || length <= 0 || start+length > m.size {
		return fmt.Errorf("write [%d,+%d) outside of memory of %d",
			start, length, m.size)
	}

	bits := m.channels[ch]
	for i := start; i < start+length; i++ {
		bits[i] = level
	}

	m.numWrites++

	return nil
}

// IsRunning tells if the pattern output is on.
func (m *Memory) IsRunning() bool {
	return m.running
}

// Size returns the memory size in ticks.
func (m *Memory) Size() timebase.Ticks {
	return m.size
}

// NumWrites returns how many constant writes the device received.
func (m *Memory) NumWrites() int {
	return m.numWrites
}

// Bits returns a copy of the bit pattern of a channel.
func (m *Memory) Bits(ch device.Channel) []bool {
	return append([]bool(nil), m.channels[ch]...)
}

// PodChannel returns the channel currently feeding a pod.
func (m *Memory) PodChannel(pod device.Pod) (device.Channel, bool) {
	ch, ok := m.podChannel[pod]
	return ch, ok
}

// PodLevels returns the high and low voltages of a pod.
func (m *Memory) PodLevels(pod device.Pod) (high, low float64, ok bool) {
	l, ok := m.podLevels[pod]
	return l[0], l[1], ok
}

// Sequence returns the block sequence.
func (m *Memory) Sequence() []SequenceEntry {
	return append([]SequenceEntry(nil), m.sequence...)
}

// Blocks returns the defined blocks ordered by start.
func (m *Memory) Blocks() []Block {
	blocks := make([]Block, 0, len(m.blocks))
	for _, b := range m.blocks {
		blocks = append(blocks, b)
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Start < blocks[j].Start
	})

	return blocks
}

// PeriodLength returns how many ticks one pass through the block sequence
// takes. Without a sequence, the whole memory is one period.
func (m *Memory) PeriodLength() timebase.Ticks {
	if len(m.sequence) == 0 {
		return m.size
	}

	var total timebase.Ticks
	for _, e := range m.sequence {
		total += m.blockLength(e.Block) * timebase.Ticks(e.Repeat)
	}

	return total
}

func (m *Memory) blockLength(name string) timebase.Ticks {
	b := m.blocks[name]
	end := m.size

	for _, other := range m.blocks {
		if other.Start > b.Start && other.Start < end {
			end = other.Start
		}
	}

	return end - b.Start
}
