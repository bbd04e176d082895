package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/tn/internal/crawler"
	terrors "git.home.luguber.info/inful/tn/internal/errors"
	"git.home.luguber.info/inful/tn/internal/journal"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Source string        `arg:"" optional:"" type:"path" help:"Show the history of one note"`
	Batch  string        `help:"Show every entry of one batch"`
	Since  time.Duration `help:"Show entries recorded within this window" default:"24h"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	path := cfg.JournalPath()
	if _, err := os.Stat(path); err != nil {
		return terrors.ValidationFailed("journal", fmt.Sprintf("no journal at %s; set journal.enabled in the configuration", path))
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	ctx := context.Background()
	var entries []journal.Entry
	switch {
	case h.Batch != "":
		entries, err = j.ByBatch(ctx, h.Batch)
	case h.Source != "":
		entries, err = j.BySource(ctx, sourcePath(h.Source))
	default:
		now := time.Now()
		entries, err = j.Range(ctx, now.Add(-h.Since), now)
	}
	if err != nil {
		return err
	}

	out := stdout(g)
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No journal entries")
		return nil
	}
	for _, e := range entries {
		_, _ = fmt.Fprintln(out, formatEntry(e))
	}
	return nil
}

// sourcePath matches the canonical form the generator journals; deleted notes
// fall back to the absolute path.
func sourcePath(p string) string {
	if canonical, err := crawler.Canonicalize(p); err == nil {
		return canonical
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func formatEntry(e journal.Entry) string {
	fields := []string{e.Time.Format(time.RFC3339), e.Type, e.BatchID}
	if e.Source != "" {
		fields = append(fields, e.Source)
	}
	if len(e.Hash) >= 12 {
		fields = append(fields, "hash="+e.Hash[:12])
	}
	if len(e.Detail) > 0 {
		keys := make([]string, 0, len(e.Detail))
		for k := range e.Detail {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, k+"="+e.Detail[k])
		}
	}
	if e.Error != "" {
		fields = append(fields, "error="+e.Error)
	}
	return strings.Join(fields, "\t")
}
