package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTable is the table that holds the execution records.
const ExecTable = "exec_info"

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder that writes to recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecTable, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start notes the start time and command line. Extra properties, such as the
// program file, can be given as pairs.
func (e *ExecRecorder) Start(properties ...ExecInfo) {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries,
		ExecInfo{"Start Time", startTime},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}

	e.entries = append(e.entries, properties...)
}

// End writes the records along with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTable, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(ExecTable, ExecInfo{"End Time", endTime})

	e.entries = nil

	e.recorder.Flush()
}
