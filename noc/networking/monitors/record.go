package monitors

import (
	"context"

	"github.com/sarchlab/vcrouter/datarecording"
)

const (
	switchTable = "switch_traversals"
	bufferTable = "buffer_accesses"
)

// Record writes the summaries of the monitors of a router into a recorder.
// Either monitor may be nil.
func Record(
	recorder datarecording.DataRecorder,
	router string,
	sw *SwitchMonitor,
	buf *BufferMonitor,
) {
	if sw != nil {
		recorder.CreateTable(switchTable, SwitchEntry{})

		for _, e := range sw.Summary(router) {
			recorder.InsertData(switchTable, e)
		}
	}

	if buf != nil {
		recorder.CreateTable(bufferTable, BufferEntry{})

		for _, e := range buf.Summary(router) {
			recorder.InsertData(bufferTable, e)
		}
	}

	recorder.Flush()
}

// ReadSwitchSummary returns the recorded switch traversals ordered by router,
// input and output.
func ReadSwitchSummary(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]SwitchEntry, error) {
	return datarecording.QueryAll[SwitchEntry](ctx, reader, switchTable,
		datarecording.QueryParams{OrderBy: "Router, Input, Output"})
}

// ReadBufferSummary returns the recorded buffer accesses ordered by router,
// input and class.
func ReadBufferSummary(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]BufferEntry, error) {
	return datarecording.QueryAll[BufferEntry](ctx, reader, bufferTable,
		datarecording.QueryParams{OrderBy: "Router, Input, Class"})
}
