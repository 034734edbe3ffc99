package linecache

// armEviction starts the idle timer, or slides its deadline if it is already
// running.
func (c *DisplayCache) armEviction() {
	if c.sched == nil || c.config.IdleTimeout <= 0 {
		return
	}
	if c.timer == nil {
		c.timer = c.sched.AfterFunc(c.config.IdleTimeout, c.evictIdle)
	} else {
		c.timer.Reset(c.config.IdleTimeout)
	}
	c.armed = true
}

// DelayEviction pushes the idle deadline back without touching any entry.
// It does nothing while the timer is not running.
func (c *DisplayCache) DelayEviction() {
	if c.armed {
		c.timer.Reset(c.config.IdleTimeout)
	}
}

func (c *DisplayCache) stopEviction() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.armed = false
}

func (c *DisplayCache) evictIdle() {
	c.armed = false
	if c.closed {
		return
	}
	n := len(c.byLine)
	c.stats.IdleFlushes++
	c.invalidateAll()
	c.log.Debug("idle flush",
		"entries", n,
		"hits", c.stats.Hits,
		"misses", c.stats.Misses,
		"evictions", c.stats.Evictions)
}
