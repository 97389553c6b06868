package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/storyline/internal/compiler"
	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
)

// NewLogger configures the application logger from cfg. debug forces the
// debug level. Logs go to Stderr so they never mix with story text.
func NewLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Log.Format), nil
}

// LoadStory reads and parses a Twee file.
func LoadStory(path string) (*domain.Story, error) {
	if path == "" {
		return nil, fmt.Errorf("no story file configured (use --story or story_file)")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	story, err := compiler.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return story, nil
}
