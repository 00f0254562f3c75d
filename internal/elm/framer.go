package elm

import (
	"errors"
	"fmt"
	"time"

	"github.com/obdmon/obd-bridge/internal/serial"
)

const (
	// MaxQueryLen bounds a client query; longer input is rejected before
	// any serial I/O happens.
	MaxQueryLen = 256
	// replyCap bounds an assembled reply. Interpreter replies are a few
	// lines at most, so hitting this means a wedged or misconfigured link.
	replyCap = 4096

	// ReadySentinel is the interpreter's prompt byte. Its receipt is the
	// only terminal condition for a reply.
	ReadySentinel = '>'
	// LineDelimiter stands in for carriage returns inside a reply, so a
	// framed reply never carries raw control bytes.
	LineDelimiter = '!'
)

var (
	// ErrTimeout means the ready sentinel never arrived before the
	// deadline (cable pulled, interpreter hung).
	ErrTimeout = errors.New("elm: reply not terminated before deadline")
	// ErrReplyOverflow means the reply outgrew the frame buffer.
	ErrReplyOverflow = errors.New("elm: reply exceeds buffer capacity")
	// ErrQueryLength means the query was empty or over capacity.
	ErrQueryLength = errors.New("elm: query length out of range")
)

// readReply polls the channel until the interpreter's ready sentinel
// arrives or the deadline passes. Control bytes below 0x20 are dropped,
// except CR which marks a line boundary and becomes the delimiter. The
// receive buffer is flushed on every exit path so leftover bytes cannot
// contaminate the next cycle.
func readReply(ch serial.Channel, timeout time.Duration) ([]byte, error) {
	reply := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	deadline := time.Now().Add(timeout)

	defer ch.FlushRX()

	for time.Now().Before(deadline) {
		n, err := ch.Poll(chunk)
		if err != nil {
			return nil, fmt.Errorf("elm: poll: %w", err)
		}
		for i := 0; i < n; i++ {
			b := chunk[i]
			switch {
			case b == ReadySentinel:
				return append(reply, b), nil
			case b == '\r':
				reply = append(reply, LineDelimiter)
			case b < 0x20:
				// LF and other control bytes carry no payload.
			default:
				reply = append(reply, b)
			}
			if len(reply) >= replyCap {
				return nil, ErrReplyOverflow
			}
		}
	}
	return nil, ErrTimeout
}
