package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// PhaseSetup maps the phase types of a phase-cycled function to pods.
type PhaseSetup struct {
	Pod      [device.NumPhaseTypes]device.Pod
	IsSet    [device.NumPhaseTypes]bool
	IsNeeded [device.NumPhaseTypes]bool
}

// NumSet returns how many phase types have a pod.
func (s *PhaseSetup) NumSet() int {
	n := 0

	for _, set := range s.IsSet {
		if set {
			n++
		}
	}

	return n
}

// Function is the state of one logical output function.
type Function struct {
	ID     device.Function
	Pods   []device.Pod
	Phase  *PhaseSetup
	Pulses []PulseID

	Delay     timebase.Ticks
	MaxSeqLen timebase.Ticks
	Inverted  bool

	HasLevels bool
	High      float64
	Low       float64

	NeededChannels int
	Channels       []device.Channel

	// PhaseMatrix tells, per phase type and stage, if any pulse ever uses
	// the combination. PCM holds the channel bound to each combination.
	PhaseMatrix  [device.NumPhaseTypes][]bool
	PCM          [device.NumPhaseTypes][]device.Channel
	ConstChannel device.Channel

	Stage int
}

// IsUsed tells if the function has pulses.
func (f *Function) IsUsed() bool {
	return len(f.Pulses) > 0
}

// IsPhaseCycled tells if the function drives several pods through a phase
// setup.
func (f *Function) IsPhaseCycled() bool {
	return f.Phase != nil
}

func (f *Function) resetMatrix(numStages int) {
	for t := range f.PhaseMatrix {
		f.PhaseMatrix[t] = make([]bool, numStages)
		f.PCM[t] = make([]device.Channel, numStages)

		for s := range f.PCM[t] {
			f.PCM[t][s] = device.NoChannel
		}
	}
}

// levels returns the voltages to drive the pods with. An inverted function
// without levels of its own swaps the device defaults.
func (f *Function) levels(limits device.Limits) (high, low float64) {
	high, low = limits.DefaultPodHighVoltage, limits.DefaultPodLowVoltage
	if f.HasLevels {
		high, low = f.High, f.Low
	}

	if f.Inverted {
		return low, high
	}

	return high, low
}

// channelFor returns the channel a pod of the function is fed by in the
// current stage.
func (f *Function) channelFor(t device.PhaseType) device.Channel {
	return f.PCM[t][f.Stage]
}
