package domain

import (
	"strconv"
	"time"
)

// ReaderID is the stable external identity of a reader.
type ReaderID int64

// String formats the id in base 10.
func (id ReaderID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseReaderID parses a base-10 reader id.
func ParseReaderID(s string) (ReaderID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ReaderID(v), nil
}

// ReaderProgress is the durable record of how far a reader got.
// There is exactly one row per reader, updated in place on each choice.
type ReaderProgress struct {
	ReaderID       ReaderID  `json:"reader_id" yaml:"reader_id"`
	CurrentPassage string    `json:"current_passage" yaml:"current_passage"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
