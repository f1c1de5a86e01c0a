package stats

import (
	"fmt"
	"time"
)

// StageWatcher records the timing and output size of one pipeline stage.
// The orchestrator calls Start() before the stage runs and Stop() after it.
type StageWatcher struct {
	stageName string
	startTime time.Time
	endTime   time.Time
	rows      int
	failed    bool
	isRunning bool
}

// Stats is a snapshot of a StageWatcher.
type Stats struct {
	StageName   string        `json:"stageName"`
	StatusText  string        `json:"statusText"`
	StatusEmoji string        `json:"statusEmoji"`
	StartTime   time.Time     `json:"startTime"`
	Elapsed     time.Duration `json:"elapsed"`
	OutputRows  int           `json:"outputRows"`
}

func NewStageWatcher(stageName string) *StageWatcher {
	return &StageWatcher{stageName: stageName}
}

func (n *StageWatcher) Start() {
	n.startTime = time.Now()
	n.endTime = time.Time{}
	n.isRunning = true
	n.failed = false
}

// Stop records the number of rows the stage produced.
func (n *StageWatcher) Stop(outputRows int) {
	n.endTime = time.Now()
	n.rows = outputRows
	n.isRunning = false
}

// Fail marks the stage as stopped by an error.
func (n *StageWatcher) Fail() {
	n.endTime = time.Now()
	n.isRunning = false
	n.failed = true
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StageWatcher) RenderStats() Stats {
	var statusText, statusEmoji string
	switch {
	case n.startTime.IsZero():
		statusText = "pending"
	case n.isRunning:
		statusText = "running"
		statusEmoji = "\U0000231B" // hour glass
	case n.failed:
		statusText = "failed"
		statusEmoji = "\U0000274C" // cross
	default:
		statusText = "complete"
		statusEmoji = "\U00002705" // green tick
	}
	var elapsed time.Duration
	switch {
	case n.startTime.IsZero():
	case n.isRunning:
		elapsed = time.Since(n.startTime)
	default:
		elapsed = n.endTime.Sub(n.startTime)
	}
	return Stats{
		StageName:   n.stageName,
		StatusText:  statusText,
		StatusEmoji: statusEmoji,
		StartTime:   n.startTime,
		Elapsed:     elapsed,
		OutputRows:  n.rows,
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsed=%v "+
			"outputRows=%v",
		s.StageName, s.StatusText, s.StatusEmoji,
		s.Elapsed.Round(time.Millisecond),
		s.OutputRows,
	)
}
