//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
)

// edgeBuffer holds a few full transmissions so a slow consumer does not
// stall the kernel event reader.
const edgeBuffer = 4096

// RealSource reads edges from actual hardware using the Linux GPIO character device.
type RealSource struct {
	line  *gpiocdev.Line
	edges chan Edge

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewRealSource requests offset on chip for both-edge events.
func NewRealSource(chip string, offset int) (*RealSource, error) {
	s := &RealSource{edges: make(chan Edge, edgeBuffer)}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithConsumer("acremote"),
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle))
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	s.line = line
	return s, nil
}

func (s *RealSource) handle(evt gpiocdev.LineEvent) {
	e := Edge{Timestamp: evt.Timestamp}
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		e.Type = RisingEdge
	case gpiocdev.LineEventFallingEdge:
		e.Type = FallingEdge
	default:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.edges <- e:
	default:
		s.dropped++
		if s.dropped == 1 {
			log.Warn().Str("component", "gpio").Msg("edge buffer full, dropping edges")
		}
	}
}

// Edges returns the event channel.
func (s *RealSource) Edges() <-chan Edge {
	return s.edges
}

// Dropped returns how many edges were discarded because the buffer was full.
func (s *RealSource) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close releases the line and closes the event channel.
func (s *RealSource) Close() error {
	var err error
	if s.line != nil {
		if cerr := s.line.Close(); cerr != nil {
			err = fmt.Errorf("close line: %w", cerr)
		}
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.edges)
	}
	s.mu.Unlock()
	return err
}
