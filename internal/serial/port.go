package serial

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	goserial "go.bug.st/serial"
)

// Channel is the five-operation surface the bridge needs from the serial
// link: raw send, bounded poll, transmit/receive flush, and close. Port is
// the hardware implementation; tests substitute scripted fakes.
type Channel interface {
	Write(p []byte) (int, error)
	// Poll reads whatever is pending, up to len(p). It returns n == 0 with
	// a nil error when nothing arrived within the poll interval.
	Poll(p []byte) (int, error)
	// FlushTX blocks until everything written has reached the wire.
	FlushTX() error
	// FlushRX discards any unread bytes in the receive buffer.
	FlushRX() error
	Close() error
}

// Port is a Channel over a physical serial port.
type Port struct {
	path string
	port goserial.Port
}

// pollInterval bounds a single Poll so the framer loop stays cooperative
// when the line is idle.
const pollInterval = 50 * time.Millisecond

// Find resolves a symbolic port name (e.g. "ttyUSB0") to a device path by
// scanning the ports present on the system. A full device path is accepted
// as-is when it is listed.
func Find(name string) (string, error) {
	ports, err := goserial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("serial: enumerate ports: %w", err)
	}
	for _, p := range ports {
		if p == name || filepath.Base(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("serial: port %q not found (%d ports present)", name, len(ports))
}

// Open opens the port at the given baud rate in 8N1 mode and drains any
// stale bytes so the first query starts from a clean buffer.
func Open(path string, baud int) (*Port, error) {
	if baud == 0 {
		baud = 9600
	}
	mode := &goserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial: set read timeout on %s: %w", path, err)
	}
	p := &Port{path: path, port: port}
	p.drain()
	log.Printf("[serial] opened %s at %d baud", path, baud)
	return p, nil
}

// drain reads and discards pending input until the line goes silent.
// Interpreters emit a banner after power-up and adapters buffer it.
func (p *Port) drain() {
	p.port.ResetInputBuffer()
	buf := make([]byte, 256)
	deadline := time.Now().Add(1 * time.Second)
	total := 0
	for time.Now().Before(deadline) {
		n, _ := p.port.Read(buf)
		if n == 0 {
			break
		}
		total += n
	}
	if total > 0 {
		log.Printf("[serial] drained %d stale bytes from %s", total, p.path)
	}
}

func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }

// Poll performs one bounded read. The read timeout set at open keeps it
// from blocking longer than pollInterval when nothing is pending.
func (p *Port) Poll(b []byte) (int, error) { return p.port.Read(b) }

func (p *Port) FlushTX() error { return p.port.Drain() }
func (p *Port) FlushRX() error { return p.port.ResetInputBuffer() }
func (p *Port) Close() error   { return p.port.Close() }
