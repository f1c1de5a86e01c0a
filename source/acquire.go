// Package source fetches the raw orders dataset and reads it into a table.
package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/aws/s3"
	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/logger"
)

const (
	schemeKaggle = "kaggle"
	schemeHttp   = "http"
	schemeHttps  = "https"
	schemeS3     = "s3"
)

var zipMagic = []byte("PK\x03\x04")

// S3ClientFunc returns a client for the given bucket.
type S3ClientFunc func(bucket string, region string) (s3.BasicClient, error)

// Acquirer resolves a dataset identifier to a local CSV file.
type Acquirer struct {
	Log            logger.Logger
	Cfg            *config.Config
	HttpClient     *http.Client
	NewS3Client    S3ClientFunc
	KaggleEndpoint string
}

// NewAcquirer returns an Acquirer that uses real HTTP and S3 clients.
func NewAcquirer(log logger.Logger, cfg *config.Config) *Acquirer {
	return &Acquirer{
		Log:        log,
		Cfg:        cfg,
		HttpClient: &http.Client{Timeout: time.Duration(cfg.HttpTimeoutSeconds) * time.Second},
		NewS3Client: func(bucket string, region string) (s3.BasicClient, error) {
			return s3.NewBasicClient(bucket, region, "")
		},
		KaggleEndpoint: constants.KaggleApiBaseUrl,
	}
}

// Acquire makes the configured dataset available as a local CSV file and returns its path.
func Acquire(ctx context.Context, log logger.Logger, cfg *config.Config) (string, error) {
	return NewAcquirer(log, cfg).Acquire(ctx)
}

// Acquire supports:
// a local CSV file;
// a local zip archive containing the configured CSV member;
// kaggle://<owner>/<dataset>, downloaded from the Kaggle API;
// http(s):// and s3:// URLs, where s3://<bucket>/<prefix>/ is searched for the CSV file or archive.
// Downloaded zip payloads are unpacked into the work dir.
func (a *Acquirer) Acquire(ctx context.Context) (string, error) {
	dataset := strings.TrimSpace(a.Cfg.Dataset)
	u, err := url.Parse(dataset)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // if this is a plain path (or a Windows drive letter)...
		return a.fromLocalFile(dataset)
	}
	if err := os.MkdirAll(a.Cfg.WorkDir, 0755); err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error creating work dir")
	}
	var downloaded string
	switch strings.ToLower(u.Scheme) {
	case schemeKaggle:
		downloaded, err = a.fromKaggle(ctx, u)
	case schemeHttp, schemeHttps:
		downloaded, err = a.fromHttp(ctx, u.String(), filepath.Join(a.Cfg.WorkDir, fileNameFromUrlPath(u.Path, a.Cfg.ArchiveFile)), "", "")
	case schemeS3:
		downloaded, err = a.fromS3(ctx, dataset)
	default:
		return "", failure.New(failure.Acquisition, stageAcquire, "unsupported dataset scheme %q in %q", u.Scheme, dataset)
	}
	if err != nil {
		return "", err
	}
	return a.unpackIfZip(downloaded)
}

func (a *Acquirer) fromLocalFile(p string) (string, error) {
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", failure.Wrap(failure.Acquisition, stageAcquire, errors.Wrapf(ErrFileNotFound, "%q", p), "error acquiring dataset")
		}
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error acquiring dataset")
	}
	if strings.EqualFold(filepath.Ext(p), ".zip") {
		return a.extract(p)
	}
	a.Log.Info("using local dataset file ", p)
	return p, nil
}

func (a *Acquirer) fromKaggle(ctx context.Context, u *url.URL) (string, error) {
	ref := strings.Trim(u.Host+u.Path, "/")
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", failure.New(failure.Acquisition, stageAcquire, "expected kaggle://<owner>/<dataset> but got %q", u.String())
	}
	downloadUrl := fmt.Sprintf("%v/datasets/download/%v/%v/%v",
		strings.TrimRight(a.KaggleEndpoint, "/"), parts[0], parts[1], url.PathEscape(a.Cfg.CsvFile))
	target := filepath.Join(a.Cfg.WorkDir, a.Cfg.ArchiveFile)
	return a.fromHttp(ctx, downloadUrl, target, a.Cfg.KaggleUsername, a.Cfg.KaggleKey)
}

func (a *Acquirer) fromHttp(ctx context.Context, rawUrl string, target string, user string, password string) (string, error) {
	a.Log.Info("downloading dataset from ", rawUrl)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error creating download request")
	}
	if user != "" {
		req.SetBasicAuth(user, password)
	}
	resp, err := a.HttpClient.Do(req)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error downloading dataset")
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", failure.Wrap(failure.Acquisition, stageAcquire, errors.Wrapf(ErrFileNotFound, "%v returned %v", rawUrl, resp.Status), "error downloading dataset")
	case resp.StatusCode != http.StatusOK:
		return "", failure.New(failure.Acquisition, stageAcquire, "download from %v returned %v", rawUrl, resp.Status)
	}
	n, err := writeFile(target, resp.Body)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error saving downloaded dataset")
	}
	a.Log.Info("downloaded ", n, " bytes to ", target)
	return target, nil
}

func (a *Acquirer) fromS3(ctx context.Context, s3Url string) (string, error) {
	loc, err := s3.ParseURL(s3Url, a.Cfg.S3Region)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error parsing dataset URL")
	}
	client, err := a.NewS3Client(loc.Bucket, loc.Region)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error creating S3 client")
	}
	if loc.IsPrefix {
		if loc.Key, err = a.findS3Key(ctx, client, loc.Key); err != nil {
			if errors.Is(err, ErrFileNotFound) {
				err = errors.Wrapf(err, "%q", s3Url)
			}
			return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error listing dataset prefix")
		}
	}
	a.Log.Info("downloading dataset from s3://", loc.Bucket, "/", loc.Key)
	data, err := client.Get(ctx, loc.Key)
	if err != nil {
		if errors.Is(err, s3.ErrKeyNotFound) {
			err = errors.Wrapf(ErrFileNotFound, "%q", s3Url)
		}
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error downloading dataset")
	}
	target := filepath.Join(a.Cfg.WorkDir, loc.FileName())
	if _, err := writeFile(target, bytes.NewReader(data)); err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error saving downloaded dataset")
	}
	a.Log.Info("downloaded ", len(data), " bytes to ", target)
	return target, nil
}

// findS3Key lists the objects under prefix and returns the key of the CSV file,
// falling back to the archive when no CSV file is there.
func (a *Acquirer) findS3Key(ctx context.Context, client s3.Lister, prefix string) (string, error) {
	keys, err := client.List(ctx, prefix+"/")
	if err != nil {
		return "", err
	}
	archive := ""
	for _, k := range keys {
		switch path.Base(k) {
		case a.Cfg.CsvFile:
			return k, nil
		case a.Cfg.ArchiveFile:
			if archive == "" {
				archive = k
			}
		}
	}
	if archive == "" {
		return "", errors.Wrapf(ErrFileNotFound, "neither %q nor %q found under prefix %q", a.Cfg.CsvFile, a.Cfg.ArchiveFile, prefix)
	}
	return archive, nil
}

// unpackIfZip extracts the CSV member when p is a zip archive; other files are returned as they are.
func (a *Acquirer) unpackIfZip(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", failure.Wrap(failure.Acquisition, stageAcquire, err, "error opening downloaded dataset")
	}
	header := make([]byte, len(zipMagic))
	n, _ := io.ReadFull(f, header)
	_ = f.Close()
	if n == len(zipMagic) && bytes.Equal(header, zipMagic) {
		return a.extract(p)
	}
	return p, nil
}

// extract copies the configured CSV member of archive into the work dir.
func (a *Acquirer) extract(archive string) (string, error) {
	wrap := func(err error, msg string) error {
		return failure.Wrap(failure.Acquisition, stageAcquire, err, msg)
	}
	r, err := zip.OpenReader(archive)
	if err != nil {
		if os.IsNotExist(err) {
			return "", wrap(errors.Wrapf(ErrFileNotFound, "%q", archive), "error opening archive")
		}
		return "", wrap(errors.Wrapf(ErrCorruptArchive, "%q: %v", archive, err), "error opening archive")
	}
	defer r.Close()
	var member *zip.File
	for _, f := range r.File {
		if f.Name == a.Cfg.CsvFile || path.Base(f.Name) == a.Cfg.CsvFile {
			member = f
			break
		}
	}
	if member == nil {
		return "", wrap(errors.Wrapf(ErrCorruptArchive, "member %q not found in %q", a.Cfg.CsvFile, archive), "error extracting archive")
	}
	rc, err := member.Open()
	if err != nil {
		return "", wrap(errors.Wrapf(ErrCorruptArchive, "%q: %v", archive, err), "error extracting archive")
	}
	defer rc.Close()
	if err := os.MkdirAll(a.Cfg.WorkDir, 0755); err != nil {
		return "", wrap(err, "error creating work dir")
	}
	target := filepath.Join(a.Cfg.WorkDir, path.Base(member.Name))
	if _, err := writeFile(target, rc); err != nil {
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrapf(ErrCorruptArchive, "%q: %v", archive, err)
		}
		return "", wrap(err, "error extracting archive")
	}
	a.Log.Info("extracted ", member.Name, " from ", archive, " to ", target)
	return target, nil
}

// writeFile streams r into a temp file alongside target and renames it into place.
// The temp file is removed on error.
func writeFile(target string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return n, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return n, err
	}
	return n, nil
}

func fileNameFromUrlPath(p string, fallback string) string {
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return base
}
