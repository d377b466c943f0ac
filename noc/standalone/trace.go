package standalone

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/vcrouter/sim"
)

// A TraceEntry is one packet of a trace: it is injected at Input on VC from
// Cycle on.
type TraceEntry struct {
	Cycle    sim.VTimeInCycle
	Input    int
	VC       int
	Dest     int
	Size     int
	Priority int
	Class    int

	// Watch makes the router trace the flits of the packet.
	Watch bool
}

var traceColumns = []string{
	"cycle", "input", "vc", "dest", "size", "priority", "class", "watch",
}

// ParseTrace reads a CSV trace with the columns cycle, input, vc, dest, size
// and the optional columns priority, class and watch (0 or 1). A header row
// is allowed.
func ParseTrace(r io.Reader) ([]TraceEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var entries []TraceEntry

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}

		if line == 1 && strings.EqualFold(record[0], traceColumns[0]) {
			continue
		}

		entry, err := parseTraceRecord(record)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}

		entries = append(entries, entry)
	}
}

func parseTraceRecord(record []string) (TraceEntry, error) {
	if len(record) < 5 || len(record) > len(traceColumns) {
		return TraceEntry{}, fmt.Errorf("expected 5 to %d fields, got %d",
			len(traceColumns), len(record))
	}

	values := make([]int, len(traceColumns))

	for i, field := range record {
		v, err := strconv.Atoi(field)
		if err != nil {
			return TraceEntry{}, fmt.Errorf("%s: %w", traceColumns[i], err)
		}

		if v < 0 {
			return TraceEntry{}, fmt.Errorf("%s must not be negative",
				traceColumns[i])
		}

		values[i] = v
	}

	if values[4] == 0 {
		return TraceEntry{}, errors.New("size must be positive")
	}

	if values[7] > 1 {
		return TraceEntry{}, errors.New("watch must be 0 or 1")
	}

	return TraceEntry{
		Cycle:    sim.VTimeInCycle(values[0]),
		Input:    values[1],
		VC:       values[2],
		Dest:     values[3],
		Size:     values[4],
		Priority: values[5],
		Class:    values[6],
		Watch:    values[7] == 1,
	}, nil
}
