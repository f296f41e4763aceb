package program

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// The environment variables that override program and CLI settings.
const (
	EnvTimeBase     = "PULSEGEN_TIME_BASE"
	EnvRepeatPeriod = "PULSEGEN_REPEAT_PERIOD"
	EnvRecord       = "PULSEGEN_RECORD"
	EnvMonitorPort  = "PULSEGEN_MONITOR_PORT"
)

var envKeys = []string{EnvTimeBase, EnvRepeatPeriod, EnvRecord, EnvMonitorPort}

// Env holds the settings read from the environment.
type Env struct {
	TimeBase     *float64
	RepeatPeriod *float64
	Record       string
	MonitorPort  int
}

// LoadEnv loads .env files into the process environment and reads the
// settings from it. Variables that are already set win over the files.
// Without files, a .env file in the working directory is used if present.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Env{}, errors.Wrap(err, "cannot load environment")
		}
	}

	vars := make(map[string]string)
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	return ParseEnv(vars)
}

// ParseEnv reads the settings from a set of variables.
func ParseEnv(vars map[string]string) (Env, error) {
	var env Env

	for key, target := range map[string]**float64{
		EnvTimeBase:     &env.TimeBase,
		EnvRepeatPeriod: &env.RepeatPeriod,
	} {
		v, ok := vars[key]
		if !ok || v == "" {
			continue
		}

		seconds, err := ParseSeconds(v)
		if err != nil {
			return Env{}, errors.Wrap(err, key)
		}

		*target = &seconds
	}

	env.Record = vars[EnvRecord]

	if v := vars[EnvMonitorPort]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Env{}, errors.Wrap(err, EnvMonitorPort)
		}

		env.MonitorPort = port
	}

	return env, nil
}

// ApplyEnv overrides the timing of the program with the environment.
func (p *Program) ApplyEnv(env Env) {
	if env.TimeBase != nil {
		p.Timing.TimeBase = Seconds(*env.TimeBase)
	}

	if env.RepeatPeriod != nil {
		period := Seconds(*env.RepeatPeriod)
		p.Timing.RepeatPeriod = &period
	}
}
