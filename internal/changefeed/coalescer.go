package changefeed

// Coalescer accumulates changed paths for one batch, dropping duplicates
// while keeping first-seen order. The zero value is ready to use.
type Coalescer struct {
	order []string
	seen  map[string]struct{}
}

// Add records path; repeated paths keep their original position.
func (c *Coalescer) Add(path string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[path]; ok {
		return
	}
	c.seen[path] = struct{}{}
	c.order = append(c.order, path)
}

// Len returns the number of pending paths.
func (c *Coalescer) Len() int { return len(c.order) }

// Drain returns the pending paths and resets the coalescer.
func (c *Coalescer) Drain() []string {
	out := c.order
	c.order = nil
	c.seen = nil
	return out
}
