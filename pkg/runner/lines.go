package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
)

type inputResult struct {
	text string
	err  error
}

// lineSource reads lines on a background goroutine so callers can wait on a
// context at the same time.
type lineSource struct {
	reader    *bufio.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{reader: bufio.NewReader(r)}
}

func (s *lineSource) initPump() {
	s.startOnce.Do(func() {
		s.inputChan = make(chan inputResult)
		go s.pump()
	})
}

func (s *lineSource) pump() {
	for {
		text, err := s.reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			s.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(s.inputChan)
				return
			}
			s.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// next returns the next line, domain.ErrInputClosed (wrapping io.EOF) when
// input is exhausted, or ctx.Err().
func (s *lineSource) next(ctx context.Context) (string, error) {
	s.initPump()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-s.inputChan:
		if !ok {
			return "", fmt.Errorf("%w: %w", domain.ErrInputClosed, io.EOF)
		}
		return res.text, res.err
	}
}
