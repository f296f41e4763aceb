// Package monitoring serves the state of a pulse compiler over HTTP while a
// program runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/id"
	"github.com/sarchlab/pulsegen/monitoring/web"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a compiler into a server that can be inspected from a
// browser. The compiler is not safe for concurrent use, so whoever drives it
// while the server runs must hold the lock returned by Guard.
type Monitor struct {
	compilerLock sync.Mutex
	compiler     *compiler.Compiler
	portNumber   int
	ids          id.IDGenerator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		ids: id.NewSequentialIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCompiler sets the compiler to be inspected.
func (m *Monitor) RegisterCompiler(c *compiler.Compiler) {
	m.compilerLock.Lock()
	defer m.compilerLock.Unlock()

	m.compiler = c
}

// Guard returns the lock that serializes access to the compiler.
func (m *Monitor) Guard() sync.Locker {
	return &m.compilerLock
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/functions", m.listFunctions)
	r.HandleFunc("/api/function/{name}", m.listFunctionDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/pulses", m.listPulses)
	r.HandleFunc("/api/channels", m.listChannels)
	r.HandleFunc("/api/plan", m.showPlan)
	r.HandleFunc("/api/advisories", m.listAdvisories)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() string {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring pulser with %s\n", url)

	go func() {
		err := http.Serve(listener, m.router())
		dieOnErr(err)
	}()

	return url
}

// withCompiler runs f with the compiler locked, answering 404 while no
// compiler is registered.
func (m *Monitor) withCompiler(
	w http.ResponseWriter,
	f func(c *compiler.Compiler),
) {
	m.compilerLock.Lock()
	defer m.compilerLock.Unlock()

	if m.compiler == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No compiler registered"))
		dieOnErr(err)

		return
	}

	f(m.compiler)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

type statusRsp struct {
	Mode          string `json:"mode"`
	TimeBase      string `json:"time_base"`
	NumStages     int    `json:"num_stages"`
	NumPulses     int    `json:"num_pulses"`
	NumAdvisories int    `json:"num_advisories"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		rsp := statusRsp{
			Mode:          c.Mode().String(),
			NumStages:     c.NumStages(),
			NumPulses:     len(c.Pulses()),
			NumAdvisories: len(c.Advisories()),
		}

		if tb := c.TimeBase(); tb.IsSet() {
			rsp.TimeBase = timebase.FormatSeconds(tb.Seconds())
		}

		writeJSON(w, rsp)
	})
}

type functionRsp struct {
	Name     string           `json:"name"`
	Pods     []device.Pod     `json:"pods"`
	Channels []device.Channel `json:"channels"`
	Delay    float64          `json:"delay"`
	Inverted bool             `json:"inverted"`
	Cycled   bool             `json:"phase_cycled"`
	Stage    int              `json:"stage"`
	Pulses   int              `json:"pulses"`
}

func (m *Monitor) listFunctions(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		rsp := []functionRsp{}

		for _, f := range c.UsedFunctions() {
			rsp = append(rsp, functionRsp{
				Name:     f.ID.String(),
				Pods:     f.Pods,
				Channels: f.Channels,
				Delay:    c.TimeBase().ToSeconds(f.Delay),
				Inverted: f.Inverted,
				Cycled:   f.IsPhaseCycled(),
				Stage:    f.Stage,
				Pulses:   len(f.Pulses),
			})
		}

		writeJSON(w, rsp)
	})
}

func (m *Monitor) findFunctionOr404(
	w http.ResponseWriter,
	c *compiler.Compiler,
	name string,
) *compiler.Function {
	f, err := device.ParseFunction(name)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, err = w.Write([]byte("Function not found"))
		dieOnErr(err)

		return nil
	}

	return c.Function(f)
}

func (m *Monitor) listFunctionDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.withCompiler(w, func(c *compiler.Compiler) {
		fn := m.findFunctionOr404(w, c, name)
		if fn == nil {
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(fn)
		serializer.SetMaxDepth(1)
		err := serializer.Serialize(w)
		dieOnErr(err)
	})
}

type fieldReq struct {
	FunctionName string `json:"function,omitempty"`
	FieldName    string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.withCompiler(w, func(c *compiler.Compiler) {
		fn := m.findFunctionOr404(w, c, req.FunctionName)
		if fn == nil {
			return
		}

		if _, err := walkFields(fn, req.FieldName); err != nil {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(fn)
		serializer.SetMaxDepth(1)

		err := serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		dieOnErr(err)

		err = serializer.Serialize(w)
		dieOnErr(err)
	})
}

type pulseRsp struct {
	Num        int     `json:"num"`
	Function   string  `json:"function"`
	Position   float64 `json:"position"`
	Length     float64 `json:"length"`
	Active     bool    `json:"active"`
	PhaseCycle *int    `json:"phase_cycle,omitempty"`
}

func (m *Monitor) listPulses(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		rsp := []pulseRsp{}
		cycles := c.PhaseCycles()

		for _, p := range c.Pulses() {
			pr := pulseRsp{
				Num:      p.Num,
				Function: p.Function.String(),
				Position: c.TimeBase().ToSeconds(p.Pos),
				Length:   c.TimeBase().ToSeconds(p.Len),
				Active:   p.IsActive(),
			}

			if p.Cycle != compiler.NoCycle && !cycles[p.Cycle].Synthetic {
				num := cycles[p.Cycle].Num
				pr.PhaseCycle = &num
			}

			rsp = append(rsp, pr)
		}

		writeJSON(w, rsp)
	})
}

type channelRsp struct {
	Channel  device.Channel `json:"channel"`
	Function string         `json:"function"`
}

func (m *Monitor) listChannels(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		rsp := []channelRsp{}

		for i := 0; i < c.Limits().MaxChannels; i++ {
			ch := device.Channel(i)

			owner := c.ChannelOwner(ch)
			if owner == device.NoFunction {
				continue
			}

			rsp = append(rsp, channelRsp{Channel: ch, Function: owner.String()})
		}

		writeJSON(w, rsp)
	})
}

func (m *Monitor) showPlan(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		writeJSON(w, c.Plan())
	})
}

type advisoryRsp struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (m *Monitor) listAdvisories(w http.ResponseWriter, _ *http.Request) {
	m.withCompiler(w, func(c *compiler.Compiler) {
		rsp := []advisoryRsp{}

		for _, a := range c.Advisories() {
			rsp = append(rsp, advisoryRsp{
				Code:    a.Code.Error(),
				Message: a.Error(),
			})
		}

		writeJSON(w, rsp)
	})
}

type fieldFormatError struct {
	field string
}

func (e fieldFormatError) Error() string {
	return fmt.Sprintf("field %q cannot be followed", e.field)
}

// walkFields follows a dot-separated path of field names and indices.
func walkFields(
	root interface{},
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(root)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			if elem.IsNil() {
				return elem, fieldFormatError{fieldNames[0]}
			}

			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{fieldNames[0]}
			}

			fieldNames = fieldNames[1:]
		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{fieldNames[0]}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{fieldNames[0]}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
