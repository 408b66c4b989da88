package gpio

import "time"

// FakeSource is a test double that replays scripted edges.
type FakeSource struct {
	edges chan Edge

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSource creates a FakeSource whose channel yields edges and is then
// closed, as if the line had been released after the last edge.
func NewFakeSource(edges []Edge) *FakeSource {
	ch := make(chan Edge, len(edges))
	for _, e := range edges {
		ch <- e
	}
	close(ch)
	return &FakeSource{edges: ch}
}

// Edges returns the scripted edges.
func (f *FakeSource) Edges() <-chan Edge {
	return f.edges
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// EdgesFromTimings converts an alternating mark/space list in microseconds
// (starting with a mark) into the edges an active-low IR receiver produces:
// a falling edge when a mark starts and a rising edge when it ends.
func EdgesFromTimings(start time.Duration, timings []int) []Edge {
	edges := make([]Edge, 0, len(timings)+1)
	t := start
	edges = append(edges, Edge{Type: FallingEdge, Timestamp: t})
	for i, us := range timings {
		t += time.Duration(us) * time.Microsecond
		if i%2 == 0 {
			edges = append(edges, Edge{Type: RisingEdge, Timestamp: t})
		} else {
			edges = append(edges, Edge{Type: FallingEdge, Timestamp: t})
		}
	}
	return edges
}
