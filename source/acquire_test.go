package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relloyd/retail-etl/aws/s3"
	"github.com/relloyd/retail-etl/aws/s3/mocks"
	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/logger"
)

func zipBytes(t *testing.T, members map[string]string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range members {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestAcquirer(t *testing.T, dataset string) (*Acquirer, string) {
	dir, err := ioutil.TempDir("", "test-acquire-")
	if err != nil {
		t.Fatal("Unable to create tmp dir: ", err)
	}
	cfg := config.Defaults()
	cfg.Dataset = dataset
	cfg.WorkDir = filepath.Join(dir, "work")
	a := NewAcquirer(logger.NewLogger(constants.AppName, "info", true), &cfg)
	return a, dir
}

func readFile(t *testing.T, p string) string {
	b, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestAcquireLocalFiles(t *testing.T) {
	a, dir := newTestAcquirer(t, "")
	defer os.RemoveAll(dir)
	// Test 1 - a local CSV is used in place.
	t.Log("Test 1 - a local CSV is used in place...")
	csvPath := filepath.Join(dir, "orders.csv")
	if err := ioutil.WriteFile(csvPath, []byte(ordersCsv), 0644); err != nil {
		t.Fatal(err)
	}
	a.Cfg.Dataset = csvPath
	got, err := a.Acquire(context.Background())
	if err != nil || got != csvPath {
		t.Fatalf("expected %q; got %q, %v", csvPath, got, err)
	}
	// Test 2 - a local zip is extracted into the work dir.
	t.Log("Test 2 - a local zip is extracted into the work dir...")
	zipPath := filepath.Join(dir, "orders.csv.zip")
	if err := ioutil.WriteFile(zipPath, zipBytes(t, map[string]string{"orders.csv": ordersCsv}), 0644); err != nil {
		t.Fatal(err)
	}
	a.Cfg.Dataset = zipPath
	got, err = a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(a.Cfg.WorkDir, "orders.csv") || readFile(t, got) != ordersCsv {
		t.Fatalf("unexpected extracted file %q", got)
	}
	// Test 3 - missing local files.
	t.Log("Test 3 - missing local files...")
	for _, p := range []string{filepath.Join(dir, "missing.csv"), filepath.Join(dir, "missing.zip")} {
		a.Cfg.Dataset = p
		_, err = a.Acquire(context.Background())
		if !errors.Is(err, ErrFileNotFound) || failure.KindOf(err) != failure.Acquisition {
			t.Fatalf("expected ErrFileNotFound for %q; got %v", p, err)
		}
	}
}

func TestAcquireCorruptArchives(t *testing.T) {
	a, dir := newTestAcquirer(t, "")
	defer os.RemoveAll(dir)
	// Test 1 - a file that isn't a zip.
	t.Log("Test 1 - a file that isn't a zip...")
	bad := filepath.Join(dir, "bad.zip")
	if err := ioutil.WriteFile(bad, []byte("not a zip at all"), 0644); err != nil {
		t.Fatal(err)
	}
	a.Cfg.Dataset = bad
	if _, err := a.Acquire(context.Background()); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive; got %v", err)
	}
	// Test 2 - the CSV member is missing.
	t.Log("Test 2 - the CSV member is missing...")
	other := filepath.Join(dir, "other.zip")
	if err := ioutil.WriteFile(other, zipBytes(t, map[string]string{"readme.txt": "hi"}), 0644); err != nil {
		t.Fatal(err)
	}
	a.Cfg.Dataset = other
	if _, err := a.Acquire(context.Background()); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive; got %v", err)
	}
	// Test 3 - a truncated archive.
	t.Log("Test 3 - a truncated archive...")
	full := zipBytes(t, map[string]string{"orders.csv": ordersCsv})
	truncated := filepath.Join(dir, "truncated.zip")
	if err := ioutil.WriteFile(truncated, full[:len(full)/2], 0644); err != nil {
		t.Fatal(err)
	}
	a.Cfg.Dataset = truncated
	if _, err := a.Acquire(context.Background()); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive; got %v", err)
	}
}

func TestAcquireKaggle(t *testing.T) {
	payload := zipBytes(t, map[string]string{"orders.csv": ordersCsv})
	var gotPath, gotUser, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotKey, _ = r.BasicAuth()
		if r.URL.Path == "/api/v1/datasets/download/someone/missing/orders.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()
	a, dir := newTestAcquirer(t, "kaggle://ankitbansal06/retail-orders")
	defer os.RemoveAll(dir)
	a.KaggleEndpoint = srv.URL + "/api/v1"
	a.Cfg.KaggleUsername = "user"
	a.Cfg.KaggleKey = "key"
	// Test 1 - download and unpack.
	t.Log("Test 1 - download and unpack...")
	got, err := a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/v1/datasets/download/ankitbansal06/retail-orders/orders.csv" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotUser != "user" || gotKey != "key" {
		t.Fatalf("expected basic auth credentials; got %q %q", gotUser, gotKey)
	}
	if readFile(t, got) != ordersCsv {
		t.Fatal("unexpected extracted content")
	}
	if _, err := os.Stat(filepath.Join(a.Cfg.WorkDir, constants.DefaultArchiveFile)); err != nil {
		t.Fatalf("expected archive to be saved in work dir: %v", err)
	}
	// Test 2 - not found.
	t.Log("Test 2 - not found...")
	a.Cfg.Dataset = "kaggle://someone/missing"
	if _, err := a.Acquire(context.Background()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound; got %v", err)
	}
	// Test 3 - bad reference.
	t.Log("Test 3 - bad reference...")
	a.Cfg.Dataset = "kaggle://only-owner"
	if _, err := a.Acquire(context.Background()); failure.KindOf(err) != failure.Acquisition {
		t.Fatalf("expected acquisition failure; got %v", err)
	}
}

func TestAcquireHttpPlainCsv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ordersCsv))
	}))
	defer srv.Close()
	a, dir := newTestAcquirer(t, srv.URL+"/data/orders.csv")
	defer os.RemoveAll(dir)
	got, err := a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "orders.csv" || readFile(t, got) != ordersCsv {
		t.Fatalf("unexpected download %q", got)
	}
}

func TestAcquireS3(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockBasicClient(ctrl)
	a, dir := newTestAcquirer(t, "s3://retail-bucket/raw/orders.csv.zip")
	defer os.RemoveAll(dir)
	var gotBucket string
	a.NewS3Client = func(bucket string, region string) (s3.BasicClient, error) {
		gotBucket = bucket
		return client, nil
	}
	// Test 1 - the object is fetched and unpacked.
	t.Log("Test 1 - the object is fetched and unpacked...")
	client.EXPECT().Get(gomock.Any(), "raw/orders.csv.zip").Return(zipBytes(t, map[string]string{"orders.csv": ordersCsv}), nil)
	got, err := a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gotBucket != "retail-bucket" || readFile(t, got) != ordersCsv {
		t.Fatalf("unexpected result bucket=%q file=%q", gotBucket, got)
	}
	// Test 2 - a missing key.
	t.Log("Test 2 - a missing key...")
	client.EXPECT().Get(gomock.Any(), "raw/orders.csv.zip").Return(nil, s3.ErrKeyNotFound)
	if _, err := a.Acquire(context.Background()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound; got %v", err)
	}
}

func TestAcquireS3Prefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockBasicClient(ctrl)
	a, dir := newTestAcquirer(t, "s3://retail-bucket/raw/2024/")
	defer os.RemoveAll(dir)
	a.NewS3Client = func(bucket string, region string) (s3.BasicClient, error) {
		return client, nil
	}
	// Test 1 - the CSV file is preferred over the archive.
	t.Log("Test 1 - the CSV file is preferred over the archive...")
	gomock.InOrder(
		client.EXPECT().List(gomock.Any(), "raw/2024/").Return([]string{"raw/2024/orders.csv.zip", "raw/2024/readme.txt", "raw/2024/orders.csv"}, nil),
		client.EXPECT().Get(gomock.Any(), "raw/2024/orders.csv").Return([]byte(ordersCsv), nil),
	)
	got, err := a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "orders.csv" || readFile(t, got) != ordersCsv {
		t.Fatalf("unexpected download %q", got)
	}
	// Test 2 - the archive is used when there is no CSV file.
	t.Log("Test 2 - the archive is used when there is no CSV file...")
	gomock.InOrder(
		client.EXPECT().List(gomock.Any(), "raw/2024/").Return([]string{"raw/2024/orders.csv.zip"}, nil),
		client.EXPECT().Get(gomock.Any(), "raw/2024/orders.csv.zip").Return(zipBytes(t, map[string]string{"orders.csv": ordersCsv}), nil),
	)
	got, err = a.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if readFile(t, got) != ordersCsv {
		t.Fatalf("unexpected extract %q", got)
	}
	// Test 3 - nothing matches under the prefix.
	t.Log("Test 3 - nothing matches under the prefix...")
	client.EXPECT().List(gomock.Any(), "raw/2024/").Return([]string{"raw/2024/readme.txt"}, nil)
	_, err = a.Acquire(context.Background())
	if !errors.Is(err, ErrFileNotFound) || failure.KindOf(err) != failure.Acquisition {
		t.Fatalf("expected acquisition ErrFileNotFound; got %v", err)
	}
	// Test 4 - listing errors are returned.
	t.Log("Test 4 - listing errors are returned...")
	client.EXPECT().List(gomock.Any(), "raw/2024/").Return(nil, errors.New("access denied"))
	if _, err = a.Acquire(context.Background()); failure.KindOf(err) != failure.Acquisition {
		t.Fatalf("expected acquisition failure; got %v", err)
	}
}

func TestAcquireUnsupportedScheme(t *testing.T) {
	a, dir := newTestAcquirer(t, "ftp://example.com/orders.csv")
	defer os.RemoveAll(dir)
	if _, err := a.Acquire(context.Background()); failure.KindOf(err) != failure.Acquisition {
		t.Fatalf("expected acquisition failure; got %v", err)
	}
}
