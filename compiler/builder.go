package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/id"
)

// Builder can build compilers.
type Builder struct {
	limits      device.Limits
	idGenerator id.IDGenerator
}

// MakeBuilder returns a Builder for a DG2020-class device.
func MakeBuilder() Builder {
	return Builder{
		limits: device.DG2020Limits(),
	}
}

// WithLimits sets the device limits the compiler must respect.
func (b Builder) WithLimits(limits device.Limits) Builder {
	b.limits = limits
	return b
}

// WithIDGenerator sets the generator of compile pass IDs.
func (b Builder) WithIDGenerator(g id.IDGenerator) Builder {
	b.idGenerator = g
	return b
}

// Build creates a new compiler with no declarations.
func (b Builder) Build() *Compiler {
	c := &Compiler{
		limits:     b.limits,
		ids:        b.idGenerator,
		podOwner:   make(map[device.Pod]device.Function),
		pulseIndex: make(map[int]PulseID),
		cycleIndex: make(map[int]CycleID),
		plusX:      NoCycle,
		numStages:  1,
		mode:       ModeSetup,
		reported:   make(map[distancePair]bool),
	}

	if c.ids == nil {
		c.ids = id.NewSequentialIDGenerator()
	}

	for i := range c.functions {
		f := &c.functions[i]
		f.ID = device.Function(i)
		f.ConstChannel = device.NoChannel
	}

	c.channelOwner = make([]device.Function, b.limits.MaxChannels)
	for i := range c.channelOwner {
		c.channelOwner[i] = device.NoFunction
	}

	return c
}
