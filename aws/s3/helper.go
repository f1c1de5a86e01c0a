package s3

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Location is an object in a bucket, or a folder of objects when IsPrefix is set.
type Location struct {
	Bucket   string
	Key      string
	Region   string
	IsPrefix bool
}

// FileName is the last element of the object key.
func (l Location) FileName() string {
	return path.Base(l.Key)
}

// ParseURL expects s3URL to be of the form s3://<bucket>/<key>.
// A trailing slash, as in s3://<bucket>/<prefix>/, marks the key as a prefix.
// The region may not be empty.
func ParseURL(s3URL string, region string) (retval Location, err error) {
	expectedScheme := "s3"
	u, err := url.Parse(s3URL)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if u.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, u.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Bucket = u.Host
	if retval.Bucket == "" {
		return retval, fmt.Errorf("URL %q has no bucket name", s3URL)
	}
	retval.Key = strings.Trim(u.Path, "/")
	if retval.Key == "" {
		return retval, fmt.Errorf("URL %q has no object key", s3URL)
	}
	retval.IsPrefix = strings.HasSuffix(u.Path, "/")
	retval.Region = region
	return
}
