// Package device describes the pattern generator the compiler targets: its
// fixed limits and the closed sets of logical functions and phase types.
package device

// Pod is a physical output connector of the pattern generator.
type Pod int

// Channel is a bit-pattern track inside the device memory.
type Channel int

// NoChannel marks an unbound channel slot.
const NoChannel Channel = -1

// Limits are the fixed properties of a pattern generator model. The compiler
// only reads them.
type Limits struct {
	MaxPods         int
	MaxChannels     int
	MaxPulserBits   int64
	MinBlockSize    int64
	MaxBlockRepeats int64

	MinTimeBase float64
	MaxTimeBase float64

	MaxPodHighVoltage  float64
	MinPodLowVoltage   float64
	MaxPodVoltageSwing float64
	MinPodVoltageSwing float64

	// Levels the pods come up with when a function sets none.
	DefaultPodHighVoltage float64
	DefaultPodLowVoltage  float64
}

// DG2020Limits returns the limits of a Sony/Tektronix DG2020 with a P3420
// pod unit.
func DG2020Limits() Limits {
	return Limits{
		MaxPods:         12,
		MaxChannels:     36,
		MaxPulserBits:   65536,
		MinBlockSize:    64,
		MaxBlockRepeats: 65536,

		MinTimeBase: 5e-9,
		MaxTimeBase: 0.1,

		MaxPodHighVoltage:  7.0,
		MinPodLowVoltage:   -2.0,
		MaxPodVoltageSwing: 9.0,
		MinPodVoltageSwing: 0.5,

		DefaultPodHighVoltage: 5.0,
		DefaultPodLowVoltage:  0.0,
	}
}

// ValidPod tells if the pod exists on the device.
func (l Limits) ValidPod(p Pod) bool {
	return p >= 0 && int(p) < l.MaxPods
}

// ValidChannel tells if the channel exists on the device.
func (l Limits) ValidChannel(c Channel) bool {
	return c >= 0 && int(c) < l.MaxChannels
}

// ValidTimeBase tells if the device can run with the given time base.
func (l Limits) ValidTimeBase(seconds float64) bool {
	const eps = 1e-12

	return seconds >= l.MinTimeBase*(1-eps) && seconds <= l.MaxTimeBase*(1+eps)
}

// ValidLevels tells if a pod can be driven with the given high and low
// voltages.
func (l Limits) ValidLevels(high, low float64) bool {
	swing := high - low

	return high <= l.MaxPodHighVoltage &&
		low >= l.MinPodLowVoltage &&
		swing <= l.MaxPodVoltageSwing &&
		swing >= l.MinPodVoltageSwing
}
