package elm

import "sync"

// scriptedChannel is a serial.Channel fake that replays canned poll chunks
// and records every interaction in order.
type scriptedChannel struct {
	mu        sync.Mutex
	chunks    [][]byte
	writes    []string
	ops       []string
	rxFlushes int
}

func (c *scriptedChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(p))
	c.ops = append(c.ops, "write")
	return len(p), nil
}

func (c *scriptedChannel) Poll(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "poll")
	if len(c.chunks) == 0 {
		return 0, nil
	}
	chunk := c.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		c.chunks[0] = chunk[n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *scriptedChannel) FlushTX() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "flushtx")
	return nil
}

func (c *scriptedChannel) FlushRX() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "flushrx")
	c.rxFlushes++
	return nil
}

func (c *scriptedChannel) Close() error { return nil }

func (c *scriptedChannel) recordedWrites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *scriptedChannel) recordedOps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.ops))
	copy(out, c.ops)
	return out
}
