package actions

import (
	"bytes"
	"context"
	"encoding/csv"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/rdbms"
	"github.com/relloyd/retail-etl/transform"
)

const ordersCsv = "Order Id,Order Date,Ship Mode,Segment,City,Category,cost price,List Price,Quantity,Discount Percent\n" +
	"1,2023-03-01,Second Class,Consumer,Henderson,Furniture,50,100,2,20\n" +
	"2,2023-08-15,Not Available,Consumer,Henderson,Furniture,150,100,1,0\n" +
	"3,2023-01-10,Standard Class,Corporate,Los Angeles,Office Supplies,10,20,3,unknown\n"

func newTestConfig(t *testing.T, csvText string) *config.Config {
	t.Helper()
	dir, err := ioutil.TempDir("", "test-run-")
	if err != nil {
		t.Fatal("Unable to create tmp dir: ", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	p := filepath.Join(dir, "orders.csv")
	if err := ioutil.WriteFile(p, []byte(csvText), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Dataset = p
	cfg.WorkDir = dir
	cfg.DbConnection = "sqlite:" + filepath.Join(dir, "retail_orders.db")
	cfg.BatchSize = 2
	return &cfg
}

// newTestLogger writes plain text to a buffer; the log file turns console colours off.
func newTestLogger(t *testing.T) (*logger.LoggerImpl, *bytes.Buffer) {
	t.Helper()
	log, err := logger.NewFileAndConsoleLogger(constants.AppName, "debug", "text", filepath.Join(t.TempDir(), constants.DefaultLogFile))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func countRows(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	log, _ := newTestLogger(t)
	s, err := rdbms.OpenSink(log, cfg.DbConnection, cfg.BatchSize)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err := s.CountRows(context.Background(), cfg.TableName)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRunPipeline(t *testing.T) {
	g := NewGomegaWithT(t)
	ctx := context.Background()
	cfg := newTestConfig(t, ordersCsv)
	log, buf := newTestLogger(t)

	// Test 1 - a full run loads every row.
	t.Log("Test 1 - full run...")
	rep, err := RunPipeline(ctx, log, cfg)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(rep.RunID).ToNot(BeEmpty())
	g.Expect(rep.Loaded).To(BeTrue())
	g.Expect(rep.RowsWritten).To(BeEquivalentTo(3))
	g.Expect(rep.DateStrategy).To(Equal(transform.StrategyStrict))
	g.Expect(rep.Mapping["Order Id"]).To(Equal("order_id"))
	g.Expect(rep.Mapping["cost price"]).To(Equal("cost_price"))
	g.Expect(rep.Quality.NegativeProfit).To(Equal(1))
	g.Expect(rep.Summary.Rows).To(Equal(3))
	g.Expect(rep.Summary.Columns).To(ContainElement("profit"))
	g.Expect(rep.Summary.Columns).ToNot(ContainElement("list_price"))
	g.Expect(rep.Summary.TotalSale.StringFixed(2)).To(Equal("180.00")) // 80 + 100 + absent
	g.Expect(rep.Summary.TotalProfit.StringFixed(2)).To(Equal("-20.00"))
	g.Expect(rep.Stats).ToNot(BeEmpty())
	g.Expect(rep.Stats[0].StageName).To(Equal(stageAcquire))
	g.Expect(rep.Stats[len(rep.Stats)-1].StageName).To(Equal(stageLoad))
	g.Expect(countRows(t, cfg)).To(BeEquivalentTo(3))
	g.Expect(buf.String()).To(ContainSubstring("run=" + rep.RunID))
	g.Expect(buf.String()).To(ContainSubstring("stage=quality"))

	// Test 2 - a second run replaces rather than appends.
	t.Log("Test 2 - second run replaces the table...")
	_, err = RunPipeline(ctx, log, cfg)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(countRows(t, cfg)).To(BeEquivalentTo(3))
}

func TestRunPipelineSkipLoadWithExport(t *testing.T) {
	g := NewGomegaWithT(t)
	cfg := newTestConfig(t, ordersCsv)
	cfg.SkipLoad = true
	cfg.DbConnection = ""
	cfg.CsvOutputDir = filepath.Join(cfg.WorkDir, "out")
	log, _ := newTestLogger(t)

	rep, err := RunPipeline(context.Background(), log, cfg)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(rep.Loaded).To(BeFalse())
	g.Expect(rep.ExportedFiles).To(HaveLen(1))
	f, err := os.Open(rep.ExportedFiles[0])
	g.Expect(err).ToNot(HaveOccurred())
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(recs).To(HaveLen(4))
	g.Expect(recs[0]).To(ContainElement("sale_price"))
	g.Expect(strings.Join(recs[1], ",")).To(ContainSubstring("2023-03-01"))
}

func TestRunPipelineFailures(t *testing.T) {
	g := NewGomegaWithT(t)
	ctx := context.Background()
	log, _ := newTestLogger(t)

	// Test 1 - missing dataset file.
	cfg := newTestConfig(t, ordersCsv)
	cfg.Dataset = filepath.Join(cfg.WorkDir, "missing.csv")
	_, err := RunPipeline(ctx, log, cfg)
	g.Expect(failure.KindOf(err)).To(Equal(failure.Acquisition))

	// Test 2 - a required column is missing.
	cfg = newTestConfig(t, "Order Id,Order Date,List Price,cost price\n1,2023-03-01,100,50\n")
	_, err = RunPipeline(ctx, log, cfg)
	g.Expect(failure.KindOf(err)).To(Equal(failure.Schema))
	g.Expect(err.Error()).To(ContainSubstring("discount_percent"))
	g.Expect(err.Error()).ToNot(ContainSubstring("cost_price"))
	_, statErr := os.Stat(filepath.Join(cfg.WorkDir, "retail_orders.db"))
	g.Expect(os.IsNotExist(statErr)).To(BeTrue(), "the sink must not be opened when a stage fails")

	// Test 3 - dates that cannot be parsed.
	cfg = newTestConfig(t, "Order Date,List Price,Discount Percent,cost price\nnot a date,100,20,50\n")
	_, err = RunPipeline(ctx, log, cfg)
	g.Expect(failure.KindOf(err)).To(Equal(failure.DateParse))

	// Test 4 - the database cannot be reached.
	cfg = newTestConfig(t, ordersCsv)
	cfg.DbConnection = "sqlite:" + filepath.Join(cfg.WorkDir, "no-such-dir", "x.db")
	_, err = RunPipeline(ctx, log, cfg)
	g.Expect(failure.KindOf(err)).To(Equal(failure.Connectivity))

	// Test 5 - invalid configuration.
	cfg = newTestConfig(t, ordersCsv)
	cfg.TableName = ""
	_, err = RunPipeline(ctx, log, cfg)
	g.Expect(failure.KindOf(err)).To(Equal(failure.Config))
}

func TestCheckConnection(t *testing.T) {
	log, _ := newTestLogger(t)
	cfg := newTestConfig(t, ordersCsv)
	if err := CheckConnection(context.Background(), log, cfg); err != nil {
		t.Fatal(err)
	}
	cfg.DbConnection = "sqlite:" + filepath.Join(cfg.WorkDir, "no-such-dir", "x.db")
	if err := CheckConnection(context.Background(), log, cfg); !failure.Is(err, failure.Connectivity) {
		t.Fatal("expected a connectivity failure, got ", err)
	}
}

func TestLogObserver(t *testing.T) {
	log, buf := newTestLogger(t)
	o := NewLogObserver(log)
	o.Notify(transform.Event{Stage: "quality", Level: transform.LevelWarn, Message: "1 rows have negative profit", Fields: map[string]interface{}{"count": 1}})
	out := buf.String()
	for _, want := range []string{"level=warning", "stage=quality", "count=1", "negative profit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output %q", want, out)
		}
	}
}
