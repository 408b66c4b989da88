// Package metrics emits DogStatsD counters for received bursts and
// transmissions.
package metrics

import (
	"sync"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"
)

// Metric names.
const (
	BurstReceived    = "ir.burst.received"
	BurstAccepted    = "ir.burst.accepted"
	BurstRejected    = "ir.burst.rejected"
	CommandSent      = "ir.command.sent"
	CommandSendError = "ir.command.send_error"
)

// Recorder counts events. Tags are "key:value" strings.
type Recorder interface {
	Incr(name string, tags ...string)
}

// Statsd sends counters to a DogStatsD agent.
type Statsd struct {
	client *statsd.Client
}

// NewStatsd creates a recorder for the agent at addr. Namespace is
// prepended to every metric name and tags are added to every metric.
func NewStatsd(addr, namespace string, tags []string) (*Statsd, error) {
	client, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	client.Namespace = namespace
	client.Tags = tags

	log.Info().
		Str("addr", addr).
		Str("namespace", namespace).
		Strs("tags", tags).
		Msg("statsd metrics initialized")
	return &Statsd{client: client}, nil
}

// Incr increments a counter. Send errors are logged at debug level.
func (s *Statsd) Incr(name string, tags ...string) {
	if err := s.client.Incr(name, tags, 1); err != nil {
		log.Debug().Err(err).Str("metric", name).Msg("failed to emit counter")
	}
}

// Close flushes and closes the client.
func (s *Statsd) Close() error {
	return s.client.Close()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Incr(string, ...string) {}

// Fake records counters for test assertions.
type Fake struct {
	mu     sync.Mutex
	Counts map[string]int
	Tags   map[string][]string
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{Counts: make(map[string]int), Tags: make(map[string][]string)}
}

// Incr records the counter and the tags of its latest increment.
func (f *Fake) Incr(name string, tags ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Counts[name]++
	f.Tags[name] = tags
}

// Count returns how often name was incremented.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Counts[name]
}
