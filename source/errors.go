package source

import "errors"

var (
	ErrFileNotFound   = errors.New("dataset file not found")
	ErrCorruptArchive = errors.New("corrupt or incomplete archive")
	ErrMalformedFile  = errors.New("malformed CSV file")
)

const (
	stageAcquire = "acquire"
	stageRead    = "read"
)
