package stats

import (
	"errors"
	"strings"
	"testing"

	"github.com/relloyd/retail-etl/logger"
)

func TestStageStatsKeepsOrder(t *testing.T) {
	log := logger.NewLogger("stats test", "error", false)
	s := NewStageStats(log)

	// Test 1 - stages are reported in the order they were added.
	for i, name := range []string{"acquire", "read", "normalize"} {
		rows := (i + 1) * 10
		if err := s.Track(name, func() (int, error) { return rows, nil }); err != nil {
			t.Fatal(err)
		}
	}
	got := s.GetStats()
	if len(got) != 3 {
		t.Fatal("expected 3 stages, got ", len(got))
	}
	for i, name := range []string{"acquire", "read", "normalize"} {
		if got[i].StageName != name {
			t.Fatalf("stage %d: expected %v, got %v", i, name, got[i].StageName)
		}
		if got[i].StatusText != "complete" {
			t.Fatal("expected complete status, got ", got[i].StatusText)
		}
		if got[i].OutputRows != (i+1)*10 {
			t.Fatal("unexpected row count ", got[i].OutputRows)
		}
	}

	// Test 2 - a failing stage is marked and its error returned.
	boom := errors.New("boom")
	if err := s.Track("load", func() (int, error) { return 0, boom }); err != boom {
		t.Fatal("expected the stage error, got ", err)
	}
	got = s.GetStats()
	if got[3].StatusText != "failed" {
		t.Fatal("expected failed status, got ", got[3].StatusText)
	}

	// Test 3 - adding an existing stage reuses the watcher.
	if s.AddStage("read") != s.AddStage("read") {
		t.Fatal("expected the same watcher for a repeated stage name")
	}
	if len(s.GetStats()) != 4 {
		t.Fatal("expected 4 stages after re-adding read")
	}
}

func TestRender(t *testing.T) {
	w := NewStageWatcher("summary")
	if w.RenderStats().StatusText != "pending" {
		t.Fatal("expected a new watcher to be pending")
	}
	w.Start()
	w.Stop(42)
	out := Render([]Stats{w.RenderStats()})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, one stage and total lines, got %q", out)
	}
	if !strings.HasPrefix(lines[1], "summary") || !strings.Contains(lines[1], "42") {
		t.Fatalf("unexpected stage line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "total") {
		t.Fatalf("unexpected total line %q", lines[2])
	}
	if !strings.Contains(w.RenderStats().String(), "Stats for summary complete") {
		t.Fatal("unexpected String(): ", w.RenderStats().String())
	}
}
