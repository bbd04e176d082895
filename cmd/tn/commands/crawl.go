package commands

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/tn/internal/crawler"
)

// CrawlCmd implements the 'crawl' command.
type CrawlCmd struct {
	Src string `arg:"" optional:"" type:"path" help:"Source directory (defaults to src from the configuration)"`
}

func (c *CrawlCmd) Run(g *Global, root *CLI) error {
	src := c.Src
	if src == "" {
		cfg, err := loadConfig(g, root)
		if err != nil {
			return err
		}
		src = cfg.Src
	}
	files, err := crawler.Crawl(src)
	if err != nil {
		return err
	}
	paths := crawler.Paths(files)
	sort.Strings(paths)
	out := stdout(g)
	for _, p := range paths {
		_, _ = fmt.Fprintln(out, p)
	}
	return nil
}
