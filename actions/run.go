package actions

import (
	"context"
	"time"

	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/file"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/rdbms"
	"github.com/relloyd/retail-etl/source"
	"github.com/relloyd/retail-etl/stats"
	"github.com/relloyd/retail-etl/table"
	"github.com/relloyd/retail-etl/transform"
	"github.com/rs/xid"
)

// Stage names for timings that are not transform stages.
const (
	stageAcquire = "acquire"
	stageRead    = "read"
	stageExport  = "export"
	stageLoad    = "load"
)

// RunReport describes a finished run.
type RunReport struct {
	RunID         string                  `json:"runId"`
	DatasetFile   string                  `json:"datasetFile"`
	Mapping       map[string]string       `json:"columnMapping"`
	DateStrategy  transform.Strategy      `json:"dateStrategy"`
	Quality       transform.QualityReport `json:"quality"`
	Summary       transform.Summary       `json:"summary"`
	ExportedFiles []string                `json:"exportedFiles,omitempty"`
	Loaded        bool                    `json:"loaded"`
	RowsWritten   int64                   `json:"rowsWritten"`
	Stats         []stats.Stats           `json:"stats"`
	Elapsed       time.Duration           `json:"elapsed"`
}

// RunPipeline acquires the dataset, transforms it and replaces the target table with the result.
// The sink is opened and probed only after the table is final, and is always closed before returning.
// The first failure aborts the run; its failure.Kind says which stage went wrong.
func RunPipeline(ctx context.Context, log logger.Logger, cfg *config.Config) (RunReport, error) {
	rep := RunReport{RunID: xid.New().String()}
	if cfg == nil {
		return rep, failure.New(failure.Config, "", "nil configuration supplied")
	}
	if err := cfg.Validate(); err != nil {
		return rep, err
	}
	start := time.Now()
	log = log.WithFields(map[string]interface{}{"run": rep.RunID})
	obs := NewLogObserver(log)
	st := stats.NewStageStats(log)
	log.Info("starting ", constants.AppName, " run for dataset ", cfg.Dataset)

	err := runPipeline(ctx, log, cfg, obs, st, &rep)
	rep.Stats = st.GetStats()
	rep.Elapsed = time.Since(start)
	st.LogStats()
	if err != nil {
		log.WithFields(map[string]interface{}{"kind": string(failure.KindOf(err))}).Error("pipeline failed after ", rep.Elapsed.Round(time.Millisecond), ": ", err)
		return rep, err
	}
	log.Info("pipeline completed in ", rep.Elapsed.Round(time.Millisecond))
	return rep, nil
}

func runPipeline(ctx context.Context, log logger.Logger, cfg *config.Config, obs transform.Observer, st *stats.StageStats, rep *RunReport) error {
	var t *table.Table
	// Extract.
	err := st.Track(stageAcquire, func() (int, error) {
		p, err := source.Acquire(ctx, log, cfg)
		rep.DatasetFile = p
		return 0, err
	})
	if err != nil {
		return err
	}
	err = st.Track(stageRead, func() (int, error) {
		var err error
		t, err = source.ReadCSV(rep.DatasetFile, cfg.NullValues)
		if err != nil {
			return 0, err
		}
		return t.Len(), nil
	})
	if err != nil {
		return err
	}
	// Transform.
	if err = transformTable(cfg, obs, st, rep, &t); err != nil {
		return err
	}
	// Optional CSV copy of the result.
	if cfg.CsvOutputDir != "" {
		err = st.Track(stageExport, func() (int, error) {
			files, err := file.ExportTable(log, file.ExportConfig{Directory: cfg.CsvOutputDir, Prefix: cfg.TableName, UseGzip: cfg.CsvGzip}, t)
			if err != nil {
				return 0, failure.Wrap(failure.Write, stageExport, err, "error exporting CSV")
			}
			rep.ExportedFiles = files
			return t.Len(), nil
		})
		if err != nil {
			return err
		}
	}
	// Load.
	if cfg.SkipLoad {
		log.Warn("skipping load into the database")
		return nil
	}
	return st.Track(stageLoad, func() (int, error) {
		n, err := load(ctx, log, cfg, t)
		if err != nil {
			return 0, err
		}
		rep.Loaded = true
		rep.RowsWritten = n
		return int(n), nil
	})
}

// transformTable runs the transform stages in order, replacing *t with each stage's output.
func transformTable(cfg *config.Config, obs transform.Observer, st *stats.StageStats, rep *RunReport, t **table.Table) error {
	err := st.Track(transform.StageProfile, func() (int, error) {
		transform.Publish(obs, transform.Profile(*t))
		return (*t).Len(), nil
	})
	if err != nil {
		return err
	}
	err = st.Track(transform.StageNormalize, func() (int, error) {
		res, err := transform.NormalizeColumns(*t)
		if err != nil {
			return 0, err
		}
		transform.Publish(obs, res.Events)
		rep.Mapping = make(map[string]string)
		iter := res.Mapping.IterFunc()
		for kv, ok := iter(); ok; kv, ok = iter() {
			rep.Mapping[kv.Key.(string)] = kv.Value.(string)
		}
		*t = res.Table
		return (*t).Len(), nil
	})
	if err != nil {
		return err
	}
	err = st.Track(transform.StageValidate, func() (int, error) {
		return (*t).Len(), transform.ValidateRequiredColumns(*t, constants.RequiredRawColumns)
	})
	if err != nil {
		return err
	}
	err = st.Track(transform.StageDerive, func() (int, error) {
		res, err := transform.DeriveMetrics(*t)
		if err != nil {
			return 0, err
		}
		transform.Publish(obs, res.Events)
		*t = res.Table
		return (*t).Len(), nil
	})
	if err != nil {
		return err
	}
	err = st.Track(transform.StageQuality, func() (int, error) {
		q, events := transform.CheckQuality(*t, constants.ColumnSalePrice, constants.ColumnProfit)
		transform.Publish(obs, events)
		rep.Quality = q
		return (*t).Len(), nil
	})
	if err != nil {
		return err
	}
	err = st.Track(transform.StageDates, func() (int, error) {
		res, err := transform.NormalizeDates(*t, cfg.DateColumn, cfg.DateLayout)
		if err != nil {
			return 0, err
		}
		transform.Publish(obs, res.Events)
		rep.DateStrategy = res.Strategy
		*t = res.Table
		return (*t).Len(), nil
	})
	if err != nil {
		return err
	}
	return st.Track(transform.StageSummary, func() (int, error) {
		s, events := transform.Summarise(*t, cfg.DateColumn)
		transform.Publish(obs, events)
		rep.Summary = s
		return s.Rows, nil
	})
}

// load probes the sink and replaces the target table.
// The sink is closed on every path.
func load(ctx context.Context, log logger.Logger, cfg *config.Config, t *table.Table) (n int64, err error) {
	sink, err := rdbms.OpenSink(log, cfg.DbConnection, cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			log.Warn("error closing database connection: ", cerr)
		}
	}()
	if err = sink.Ping(ctx); err != nil {
		return 0, err
	}
	n, err = sink.Replace(ctx, cfg.TableName, t)
	if err != nil {
		return 0, err
	}
	log.Info("loaded ", n, " rows into table ", cfg.TableName)
	return n, nil
}

// CheckConnection opens the configured sink, runs the connectivity probe and closes it.
func CheckConnection(ctx context.Context, log logger.Logger, cfg *config.Config) error {
	sink, err := rdbms.OpenSink(log, cfg.DbConnection, cfg.BatchSize)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()
	return sink.Ping(ctx)
}
