package worker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/linkshelf/pkg/linker"
)

// Stats summarizes one pass over the search directory, or one batch of files
// picked up in watch mode.
type Stats struct {
	RunID      string    `json:"run_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	FilesScanned     int `json:"files_scanned"`
	ResolvedIndex    int `json:"resolved_index"`
	ResolvedEmbedded int `json:"resolved_embedded"`
	Unresolved       int `json:"unresolved"`

	LinksCreated int `json:"links_created"`
	LinksSkipped int `json:"links_skipped"`
	LinksFailed  int `json:"links_failed"`
}

func newStats(runID string) *Stats {
	return &Stats{RunID: runID, StartedAt: time.Now()}
}

func (s *Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Stats) addLinks(result linker.Result) {
	s.LinksCreated += result.Created
	s.LinksSkipped += result.Skipped
	s.LinksFailed += result.Failed
}

func (s *Stats) logData() logger.Data {
	return logger.Data{
		"files_scanned":     s.FilesScanned,
		"resolved_index":    s.ResolvedIndex,
		"resolved_embedded": s.ResolvedEmbedded,
		"unresolved":        s.Unresolved,
		"links_created":     s.LinksCreated,
		"links_skipped":     s.LinksSkipped,
		"links_failed":      s.LinksFailed,
		"duration":          s.Duration().String(),
	}
}

type report struct {
	*Stats
	DurationMS int64 `json:"duration_ms"`
}

// WriteReport writes the stats as indented JSON to path, creating its parent
// directory if needed.
func (s *Stats) WriteReport(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithStack(err)
	}

	data, err := json.MarshalIndent(report{Stats: s, DurationMS: s.Duration().Milliseconds()}, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	err = os.WriteFile(path, append(data, '\n'), 0644) //nolint:gosec
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
