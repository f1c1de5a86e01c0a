package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/retail-etl/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// StageStats keeps a StageWatcher per pipeline stage in the order the stages were added.
type StageStats struct {
	mu         sync.Mutex
	log        logger.Logger
	mapStages  *ordered_map.OrderedMap // stage name -> *StageWatcher
	stageNames []string
}

func NewStageStats(log logger.Logger) *StageStats {
	return &StageStats{log: log, mapStages: ordered_map.NewOrderedMap()}
}

// AddStage returns the StageWatcher for stageName, creating it if needed.
func (t *StageStats) AddStage(stageName string) *StageWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sw, ok := t.mapStages.Get(stageName); ok {
		return sw.(*StageWatcher)
	}
	sw := NewStageWatcher(stageName)
	t.mapStages.Set(stageName, sw)
	t.stageNames = append(t.stageNames, stageName)
	return sw
}

// Track runs fn between Start and Stop of the named stage.
// fn returns the number of rows the stage produced.
func (t *StageStats) Track(stageName string, fn func() (int, error)) error {
	sw := t.AddStage(stageName)
	sw.Start()
	rows, err := fn()
	if err != nil {
		sw.Fail()
		return err
	}
	sw.Stop(rows)
	t.log.Debug(sw.RenderStats().String())
	return nil
}

// GetStats implements interface StatsFetcher{}.
func (t *StageStats) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	statsList := make([]Stats, 0, len(t.stageNames))
	iter := t.mapStages.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StageWatcher).RenderStats())
	}
	return statsList
}

// Total returns the sum of the elapsed time of every stage.
func (t *StageStats) Total() (d time.Duration) {
	for _, s := range t.GetStats() {
		d += s.Elapsed
	}
	return
}

// LogStats writes one line per stage followed by a table of timings.
func (t *StageStats) LogStats() {
	all := t.GetStats()
	for _, s := range all {
		t.log.Info(s.String())
	}
	t.log.Info("stage timings:\n" + Render(all))
}

// Render formats stats as a fixed width table.
func Render(all []Stats) string {
	width := len("stage")
	for _, s := range all {
		if len(s.StageName) > width {
			width = len(s.StageName)
		}
	}
	var b strings.Builder
	line := fmt.Sprintf("%%-%dv  %%-8v  %%12v  %%10v\n", width)
	fmt.Fprintf(&b, line, "stage", "status", "elapsed", "rows")
	var total time.Duration
	for _, s := range all {
		fmt.Fprintf(&b, line, s.StageName, s.StatusText, s.Elapsed.Round(time.Millisecond), s.OutputRows)
		total += s.Elapsed
	}
	fmt.Fprintf(&b, line, "total", "", total.Round(time.Millisecond), "")
	return b.String()
}
