package logger_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/retail-etl/logger"
)

var _ = Describe("Logger", func() {
	var (
		l         *logger.LoggerImpl
		logOutput *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		l, err = logger.NewFileAndConsoleLogger("test-service", "debug", "json", "")
		Expect(err).ToNot(HaveOccurred())
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	decode := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		Expect(decode()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		Expect(decode()["level"]).To(Equal("info"))
	})

	It("Should have warning as log level", func() {
		l.Warn("Testing")
		Expect(decode()["level"]).To(Equal("warning"))
	})

	It("Should have `Testing` as msg and a timestamp", func() {
		l.Info("Testing")
		actual := decode()
		Expect(actual["msg"]).To(Equal("Testing"))
		Expect(actual["time"]).ToNot(BeEmpty())
	})

	It("Should carry fields added by WithFields", func() {
		l.WithFields(map[string]interface{}{"stage": "normalize"}).Info("Testing")
		Expect(decode()["stage"]).To(Equal("normalize"))
	})

	It("Should not log debug lines at info level", func() {
		quiet, err := logger.NewFileAndConsoleLogger("test-service", "info", "json", "")
		Expect(err).ToNot(HaveOccurred())
		quiet.SetOutput(logOutput)
		quiet.Debug("hidden")
		Expect(logOutput.Len()).To(Equal(0))
	})

	It("Should reject unknown levels and formats", func() {
		_, err := logger.NewFileAndConsoleLogger("test-service", "loud", "text", "")
		Expect(err).To(HaveOccurred())
		_, err = logger.NewFileAndConsoleLogger("test-service", "info", "xml", "")
		Expect(err).To(HaveOccurred())
	})

	It("Should append lines to the log file", func() {
		dir, err := ioutil.TempDir("", "logger-test-")
		Expect(err).ToNot(HaveOccurred())
		logFile := filepath.Join(dir, "etl_pipeline.log")
		fl, err := logger.NewFileAndConsoleLogger("test-service", "info", "text", logFile)
		Expect(err).ToNot(HaveOccurred())
		fl.Info("written to file")
		Expect(fl.Close()).To(Succeed())
		b, err := ioutil.ReadFile(logFile)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(b)).To(ContainSubstring("written to file"))
		Expect(string(b)).To(ContainSubstring("level=info"))
	})
})
