package connection

// supervise replaces the lost socket of c according to the reconnect
// policy. The position set is never touched.
func (r *Registry) supervise(c *ServerConnection) {
	delay, ok := c.retrier.Next()
	if !ok {
		r.debugLog("supervise: giving up", "address", c.address, "attempts", c.attempt)
		return
	}

	c.attempt++
	if r.config.OnReconnecting != nil {
		r.config.OnReconnecting(c.address, c.attempt, delay)
	}

	if delay <= 0 {
		r.reopen(c)
		return
	}

	r.debugLog("supervise: reconnect scheduled", "address", c.address, "delay", delay)
	c.reopenTimer = r.loop.AfterFunc(delay, func() {
		c.reopenTimer = nil
		if r.conns[c.address] != c {
			return
		}
		r.reopen(c)
	})
}

func (r *Registry) reopen(c *ServerConnection) {
	c.reconnects++
	c.socket = r.open(c.address, "reconnect")
}
