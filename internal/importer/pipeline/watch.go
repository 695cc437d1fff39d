package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Watch polls the input folder and runs the pipeline whenever NF-e
// files are present. With run_at set (HH:MM) it fires once a day at
// that time instead of on an interval. Blocks until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	if p.cfg.Watch.RunAt != "" {
		return p.watchDaily(ctx)
	}

	interval := time.Duration(p.cfg.Watch.IntervalMinutes) * time.Minute
	p.log.Info().Dur("interval", interval).Str("folder", p.cfg.Paths.NFEInputFolder).
		Msg("watching input folder")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		p.runIfPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) watchDaily(ctx context.Context) error {
	at, err := time.Parse("15:04", p.cfg.Watch.RunAt)
	if err != nil {
		return fmt.Errorf("watch.run_at %q is not HH:MM", p.cfg.Watch.RunAt)
	}
	p.log.Info().Str("run_at", p.cfg.Watch.RunAt).Msg("watching on daily schedule")

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			p.runIfPending()
		}
	}
}

// runIfPending runs one watch cycle. Failures are logged, never fatal:
// the next tick retries with whatever is in the folder then.
func (p *Pipeline) runIfPending() {
	files, err := p.discoverXML()
	if err != nil {
		p.log.Error().Err(err).Msg("input folder scan failed")
		return
	}
	if len(files) == 0 {
		return
	}
	if _, err := p.Run(files, "watch"); err != nil {
		p.log.Error().Err(err).Msg("watch run failed")
		return
	}
	p.archiveProcessed(files)
}

// archiveProcessed moves handled XMLs into a processed/ subfolder so
// the next cycle does not pick them up again.
func (p *Pipeline) archiveProcessed(files []string) {
	folder := filepath.Join(p.cfg.Paths.NFEInputFolder, "processed")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		p.log.Error().Err(err).Msg("cannot create processed folder")
		return
	}
	for _, path := range files {
		dest := filepath.Join(folder, filepath.Base(path))
		if err := os.Rename(path, dest); err != nil {
			p.log.Warn().Err(err).Str("file", path).Msg("could not archive processed file")
		}
	}
}
