package elm

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/obdmon/obd-bridge/internal/logger"
	"github.com/obdmon/obd-bridge/internal/serial"
)

const defaultReplyTimeout = 5 * time.Second

// Dispatcher owns the serial channel and serializes query/reply cycles
// against it. Once the bridge is running it is the only writer and reader
// of the channel.
type Dispatcher struct {
	mu      sync.Mutex
	ch      serial.Channel
	journal *logger.Journal
	timeout time.Duration
}

// NewDispatcher wires a dispatcher to its channel and journal. A zero
// timeout falls back to the default reply deadline.
func NewDispatcher(ch serial.Channel, journal *logger.Journal, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultReplyTimeout
	}
	return &Dispatcher{ch: ch, journal: journal, timeout: timeout}
}

// Dispatch sends one query and returns the classified reply payload. Empty
// and over-length queries are rejected before the channel is touched. An
// empty payload with a nil error means the reply did not classify; the
// caller sends nothing back.
func (d *Dispatcher) Dispatch(query string) (string, error) {
	if len(query) == 0 || len(query) > MaxQueryLen {
		return "", fmt.Errorf("%w: %d bytes", ErrQueryLength, len(query))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.ch.Write([]byte(query)); err != nil {
		return "", fmt.Errorf("elm: write query: %w", err)
	}
	if err := d.ch.FlushTX(); err != nil {
		return "", fmt.Errorf("elm: flush tx: %w", err)
	}
	d.journal.Logf("TXD: %s", strings.TrimRight(query, "\r\n"))

	reply, err := readReply(d.ch, d.timeout)
	if err != nil {
		return "", err
	}

	kind, payload := Classify(reply)
	if kind == KindUnknown {
		d.journal.Logf("RXD unknown message: %s", string(reply))
		log.Printf("[elm] unclassified reply: %q", reply)
		return "", nil
	}
	d.journal.Logf("RXD: %s", payload)
	return payload, nil
}
