// Package program reads experiment programs: the declarations of a pulser and
// the script of steps that change it. A program is run twice, once without
// hardware so the compiler can plan, and once against a device.
package program

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/device"
)

// Program is a parsed program file.
type Program struct {
	Name        string             `toml:"name"`
	Device      DeviceConfig       `toml:"device"`
	Timing      Timing             `toml:"timing"`
	Defense     *Defense           `toml:"defense"`
	Functions   []FunctionConfig   `toml:"functions"`
	PhaseCycles []PhaseCycleConfig `toml:"phase_cycles"`
	Pulses      []PulseConfig      `toml:"pulses"`
	Steps       []Step             `toml:"steps"`

	// Path is the file the program was loaded from.
	Path string `toml:"-"`
}

// DeviceConfig overrides the limits of the default device.
type DeviceConfig struct {
	MaxPods         *int   `toml:"max_pods"`
	MaxChannels     *int   `toml:"max_channels"`
	MaxPulserBits   *int64 `toml:"max_pulser_bits"`
	MinBlockSize    *int64 `toml:"min_block_size"`
	MaxBlockRepeats *int64 `toml:"max_block_repeats"`
}

// Timing holds the global times of a program.
type Timing struct {
	TimeBase     Seconds  `toml:"time_base"`
	RepeatPeriod *Seconds `toml:"repeat_period"`
}

// Defense holds the minimum distances between TWT gate and defense pulses.
type Defense struct {
	GateToDefense Seconds `toml:"gate_to_defense"`
	DefenseToGate Seconds `toml:"defense_to_gate"`
}

// FunctionConfig declares the pods and properties of a function.
type FunctionConfig struct {
	Name      string         `toml:"name"`
	Pods      []int          `toml:"pods"`
	PhasePods map[string]int `toml:"phase_pods"`
	Delay     *Seconds       `toml:"delay"`
	Inverted  bool           `toml:"inverted"`
	High      *float64       `toml:"high"`
	Low       *float64       `toml:"low"`
}

// PhaseCycleConfig declares a phase cycle.
type PhaseCycleConfig struct {
	Num      int      `toml:"num"`
	Sequence []string `toml:"sequence"`
}

// PulseConfig declares a pulse and its initial values.
type PulseConfig struct {
	Num            int      `toml:"num"`
	Function       string   `toml:"function"`
	Position       *Seconds `toml:"position"`
	Length         *Seconds `toml:"length"`
	PositionChange *Seconds `toml:"position_change"`
	LengthChange   *Seconds `toml:"length_change"`
	PhaseCycle     *int     `toml:"phase_cycle"`
}

// Load reads a program file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	p.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve path %s", path)
	}

	return p, nil
}

// Parse decodes a program and checks that names and operations are known.
func Parse(data []byte) (*Program, error) {
	var p Program

	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown key %s", undecoded[0])
	}

	if err := p.check(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Program) check() error {
	for _, f := range p.Functions {
		if _, err := device.ParseFunction(f.Name); err != nil {
			return err
		}

		if (f.High == nil) != (f.Low == nil) {
			return errors.Errorf("function %s: high and low must be given together", f.Name)
		}

		for name := range f.PhasePods {
			if _, err := device.ParsePhaseType(name); err != nil {
				return errors.Wrapf(err, "function %s", f.Name)
			}
		}
	}

	for _, cycle := range p.PhaseCycles {
		for _, name := range cycle.Sequence {
			if _, err := device.ParsePhaseType(name); err != nil {
				return errors.Wrapf(err, "phase cycle %d", cycle.Num)
			}
		}
	}

	for _, pulse := range p.Pulses {
		if _, err := device.ParseFunction(pulse.Function); err != nil {
			return errors.Wrapf(err, "pulse #%d", pulse.Num)
		}
	}

	for i := range p.Steps {
		if err := p.Steps[i].check(); err != nil {
			return errors.Wrapf(err, "step %d", i+1)
		}
	}

	return nil
}

// Limits returns the default device limits with the overrides of the
// program applied.
func (p *Program) Limits() device.Limits {
	l := device.DG2020Limits()
	d := p.Device

	if d.MaxPods != nil {
		l.MaxPods = *d.MaxPods
	}

	if d.MaxChannels != nil {
		l.MaxChannels = *d.MaxChannels
	}

	if d.MaxPulserBits != nil {
		l.MaxPulserBits = *d.MaxPulserBits
	}

	if d.MinBlockSize != nil {
		l.MinBlockSize = *d.MinBlockSize
	}

	if d.MaxBlockRepeats != nil {
		l.MaxBlockRepeats = *d.MaxBlockRepeats
	}

	return l
}

// sortedPhasePods returns the phase pods in phase type order.
func (f *FunctionConfig) sortedPhasePods() []phasePod {
	pods := make([]phasePod, 0, len(f.PhasePods))

	for name, pod := range f.PhasePods {
		t, _ := device.ParsePhaseType(name)
		pods = append(pods, phasePod{phase: t, pod: device.Pod(pod)})
	}

	sort.Slice(pods, func(i, j int) bool {
		return pods[i].phase < pods[j].phase
	})

	return pods
}

type phasePod struct {
	phase device.PhaseType
	pod   device.Pod
}
