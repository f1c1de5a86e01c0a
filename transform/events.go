// Package transform cleans and enriches the orders table.
// Stages do not log; they return Events for an Observer to report.
package transform

import (
	"fmt"

	"github.com/relloyd/retail-etl/table"
)

// Stage names used in events and failures.
const (
	StageProfile   = "profile"
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageDerive    = "derive"
	StageQuality   = "quality"
	StageDates     = "dates"
	StageSummary   = "summary"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
)

// Event is an observation made by a stage.
type Event struct {
	Stage   string
	Level   Level
	Message string
	Fields  map[string]interface{}
}

// Observer receives events from the stages.
type Observer interface {
	Notify(e Event)
}

// ObserverFunc adapts a func to an Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) Notify(e Event) {
	f(e)
}

// Result is the output of a stage that succeeded.
type Result struct {
	Table  *table.Table
	Events []Event
}

// Publish sends all events to o.
func Publish(o Observer, events []Event) {
	if o == nil {
		return
	}
	for _, e := range events {
		o.Notify(e)
	}
}

func newEvent(stage string, level Level, fields map[string]interface{}, format string, args ...interface{}) Event {
	return Event{Stage: stage, Level: level, Message: fmt.Sprintf(format, args...), Fields: fields}
}
