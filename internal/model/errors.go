package model

import (
	"fmt"
	"strings"
)

// FileNotFoundError reports a required input file or directory that does not exist.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file not found: %s: %v", e.Path, e.Err)
	}
	return "file not found: " + e.Path
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// MissingColumnError reports required columns absent from a source file.
type MissingColumnError struct {
	Source    string
	Missing   []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required columns %v (available: %s)",
		e.Source, e.Missing, strings.Join(e.Available, ", "))
}

// MissingMergeColumnError reports that none of the known aliases for a join
// axis exist in a shapefile.
type MissingMergeColumnError struct {
	Source     string
	Axis       string // "city" or "sub-area"
	Candidates []string
	Available  []string
}

func (e *MissingMergeColumnError) Error() string {
	return fmt.Sprintf("%s: no %s merge column among %v (available: %s)",
		e.Source, e.Axis, e.Candidates, strings.Join(e.Available, ", "))
}

// EncodingError reports text that could not be decoded with an encoding.
// Loaders handle it by falling back to another encoding.
type EncodingError struct {
	Encoding string
	Field    string
	Err      error
}

func (e *EncodingError) Error() string {
	msg := "decode " + e.Encoding
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
