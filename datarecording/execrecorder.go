package datarecording

import (
	"context"
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

// ExecInfo is one note about a run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTableName, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start notes the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.Note("Start Time", time.Now().Format(time.RFC3339Nano))
	e.Note("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Note("Working Directory", cwd)
}

// Note adds a property of the run.
func (e *ExecRecorder) Note(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the notes along with the end time.
func (e *ExecRecorder) End() {
	e.Note("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

// ReadExecInfo returns the notes of a recorded run in the order they were
// written.
func ReadExecInfo(ctx context.Context, r DataReader) ([]ExecInfo, error) {
	return QueryAll[ExecInfo](ctx, r, execTableName,
		QueryParams{OrderBy: "rowid"})
}
