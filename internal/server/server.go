package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/obdmon/obd-bridge/internal/elm"
)

// Dispatcher is the query path the gateway drives. Satisfied by
// elm.Dispatcher.
type Dispatcher interface {
	Dispatch(query string) (string, error)
}

// Server binds the datagram socket and drives one query/reply cycle at a
// time through the dispatcher. A second client's request waits until the
// current cycle, including the serial reply deadline, completes.
type Server struct {
	cfg  *Config
	disp Dispatcher
	mon  *Monitor // may be nil

	conn  *net.UDPConn
	ready chan struct{} // closed once the socket is bound
}

// New creates a gateway server. mon may be nil when the monitor surface is
// disabled.
func New(cfg *Config, disp Dispatcher, mon *Monitor) *Server {
	return &Server{
		cfg:   cfg,
		disp:  disp,
		mon:   mon,
		ready: make(chan struct{}),
	}
}

// Run binds the UDP socket and serves requests until the context is
// cancelled. A bind failure is returned to the caller; steady-state socket
// errors are logged and the loop continues.
func (s *Server) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.cfg.Bridge.UDPPort})
	if err != nil {
		return fmt.Errorf("gateway: bind udp port %d: %w", s.cfg.Bridge.UDPPort, err)
	}
	s.conn = conn
	close(s.ready)
	defer conn.Close()
	log.Printf("[gateway] listening on %s", conn.LocalAddr())

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	// One extra byte of headroom so an over-length datagram arrives as
	// MaxQueryLen+1 bytes and fails validation instead of being silently
	// truncated to a valid length.
	buf := make([]byte, elm.MaxQueryLen+1)
	for {
		n, client, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[gateway] shutting down")
				return nil
			}
			log.Printf("[gateway] receive failed: %v", err)
			continue
		}
		s.serve(conn, client, string(buf[:n]))
	}
}

// serve runs one full cycle: dispatch the query and, iff classification
// produced a payload, send it back to the originating endpoint. The client
// address lives exactly as long as this call.
func (s *Server) serve(conn *net.UDPConn, client *net.UDPAddr, query string) {
	s.mon.Publish(Event{Dir: "query", Data: strings.TrimRight(query, "\r\n")})

	payload, err := s.disp.Dispatch(query)
	switch {
	case errors.Is(err, elm.ErrQueryLength):
		log.Printf("[gateway] rejected query from %s: %v", client, err)
		return
	case errors.Is(err, elm.ErrTimeout):
		log.Printf("[gateway] no reply from interpreter for %s: %v", client, err)
		s.mon.Publish(Event{Dir: "timeout", Data: strings.TrimRight(query, "\r\n")})
		return
	case err != nil:
		log.Printf("[gateway] dispatch failed: %v", err)
		return
	}
	if payload == "" {
		// Unclassifiable reply: journaled by the dispatcher, nothing
		// goes back to the client.
		return
	}

	if _, err := conn.WriteToUDP([]byte(payload), client); err != nil {
		log.Printf("[gateway] send to %s failed: %v", client, err)
		return
	}
	s.mon.Publish(Event{Dir: "reply", Data: payload})
}
