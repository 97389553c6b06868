package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChoiceToken is the decoded form of the opaque value bound to a choice control.
// The wire format is "{reader_id}-{index}|{target}". Index only disambiguates
// identical labels within one message; it is not a security measure.
type ChoiceToken struct {
	ReaderID ReaderID
	Index    int
	Target   string
}

// String encodes the token.
func (t ChoiceToken) String() string {
	return fmt.Sprintf("%d-%d|%s", int64(t.ReaderID), t.Index, t.Target)
}

// ParseChoiceToken decodes a token. The target is everything after the first '|',
// so passage names containing '|' survive a round trip.
func ParseChoiceToken(s string) (ChoiceToken, error) {
	head, target, ok := strings.Cut(s, "|")
	if !ok {
		return ChoiceToken{}, fmt.Errorf("choice token %q: missing '|' separator", s)
	}
	// Reader ids may be negative, so split on the last '-'.
	sep := strings.LastIndex(head, "-")
	if sep <= 0 {
		return ChoiceToken{}, fmt.Errorf("choice token %q: missing '-' separator", s)
	}
	reader, err := strconv.ParseInt(head[:sep], 10, 64)
	if err != nil {
		return ChoiceToken{}, fmt.Errorf("choice token %q: invalid reader id: %w", s, err)
	}
	index, err := strconv.Atoi(head[sep+1:])
	if err != nil || index < 0 {
		return ChoiceToken{}, fmt.Errorf("choice token %q: invalid index", s)
	}
	return ChoiceToken{ReaderID: ReaderID(reader), Index: index, Target: target}, nil
}
