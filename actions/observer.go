package actions

import (
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/transform"
)

// LogObserver writes transform events to a logger.
// Each event gets a stage field plus any fields it carries.
type LogObserver struct {
	Log logger.Logger
}

func NewLogObserver(log logger.Logger) *LogObserver {
	return &LogObserver{Log: log}
}

func (o *LogObserver) Notify(e transform.Event) {
	fields := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields["stage"] = e.Stage
	l := o.Log.WithFields(fields)
	switch e.Level {
	case transform.LevelDebug:
		l.Debug(e.Message)
	case transform.LevelWarn:
		l.Warn(e.Message)
	default:
		l.Info(e.Message)
	}
}
