package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sweeney/acremote/internal/command"
	"github.com/sweeney/acremote/internal/config"
	"github.com/sweeney/acremote/internal/decoder"
	"github.com/sweeney/acremote/internal/gpio"
	"github.com/sweeney/acremote/internal/ir"
	"github.com/sweeney/acremote/internal/metrics"
	"github.com/sweeney/acremote/internal/mqtt"
	"github.com/sweeney/acremote/internal/status"
	"github.com/sweeney/acremote/internal/web"
)

// stopReason is the cancellation cause of the receive loop.
type stopReason string

func (r stopReason) Error() string { return string(r) }

const (
	stopSIGINT  stopReason = "SIGINT"
	stopSIGTERM stopReason = "SIGTERM"
	stopStdin   stopReason = "STDIN"
)

func signalReason(s os.Signal) stopReason {
	switch s {
	case syscall.SIGINT:
		return stopSIGINT
	case syscall.SIGTERM:
		return stopSIGTERM
	}
	return stopReason(strings.ToUpper(s.String()))
}

// receiver turns flushed bursts into commands and reports them.
type receiver struct {
	tracker   *status.Tracker
	publisher mqtt.Publisher // nil when MQTT is disabled
	mqttState mqtt.ConnectionStatus
	metrics   metrics.Recorder
	out       io.Writer
	now       func() time.Time
	newID     func() string
	heartbeat time.Duration // 0 disables

	lastHeartbeat time.Time
}

func (r *receiver) reject(reason status.Rejection, tag string, pulses int, err error) {
	r.tracker.Rejected(reason)
	r.metrics.Incr(metrics.BurstRejected, "reason:"+tag)
	log.Debug().Str("component", "receive").Int("pulses", pulses).Err(err).Msg("dropped burst")
}

// handleBurst validates a burst and, if it holds a command, prints and
// publishes it. Anything else is dropped.
func (r *receiver) handleBurst(burst []ir.Pulse) {
	r.tracker.BurstReceived()
	r.metrics.Incr(metrics.BurstReceived)

	rec, frame, err := ir.DecodeCapture(burst)
	switch {
	case errors.Is(err, ir.ErrMalformedCapture):
		r.reject(status.RejectMalformed, "malformed", len(burst), err)
		return
	case errors.Is(err, ir.ErrChecksum):
		r.reject(status.RejectChecksum, "checksum", len(burst), err)
		return
	case err != nil:
		r.reject(status.RejectMalformed, "malformed", len(burst), err)
		return
	}

	fmt.Fprintf(r.out, "Signal received: %s\n", ir.FormatFrame(frame))

	c, err := command.Decode(rec)
	if err != nil {
		r.reject(status.RejectUnknownCode, "unknown_code", len(burst), fmt.Errorf("record %s: %w", rec, err))
		return
	}
	fmt.Fprintf(r.out, "Command: %s\n", c)

	event := mqtt.CommandEvent{ID: r.newID(), Timestamp: r.now(), Command: c, Record: rec}
	r.tracker.Accepted(status.LastCommand{ID: event.ID, ReceivedAt: event.Timestamp, Command: c, Record: rec})
	r.metrics.Incr(metrics.BurstAccepted, "mode:"+strings.ToLower(string(c.Mode)))
	log.Info().Str("component", "receive").Str("id", event.ID).Stringer("command", c).Msg("command received")

	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(event); err != nil {
		// Don't stop receiving on publish failure
		log.Warn().Str("component", "receive").Err(err).Msg("publish failed")
	}
	if r.mqttState != nil {
		r.tracker.SetMQTTConnected(r.mqttState.IsConnected())
	}
}

// checkHeartbeat publishes a HEARTBEAT status snapshot if the interval has
// elapsed since the last one (or since the loop started).
func (r *receiver) checkHeartbeat(now time.Time) {
	if r.heartbeat <= 0 || now.Sub(r.lastHeartbeat) < r.heartbeat {
		return
	}
	r.lastHeartbeat = now

	counts := r.tracker.Snapshot().Counts
	log.Info().
		Int("bursts", counts.Bursts).
		Int("accepted", counts.Accepted).
		Int("rejected", counts.Malformed+counts.ChecksumFailed+counts.UnknownCode).
		Msg("heartbeat")
	r.publishSystemAt(now, "HEARTBEAT", "", false)
}

func (r *receiver) publishSystem(event, reason string) {
	r.publishSystemAt(r.now(), event, reason, true)
}

func (r *receiver) publishSystemAt(at time.Time, event, reason string, retained bool) {
	if r.publisher == nil {
		return
	}
	if r.mqttState != nil {
		r.tracker.SetMQTTConnected(r.mqttState.IsConnected())
	}
	snap := r.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  at,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := r.publisher.PublishSystem(ev); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("failed to publish system event")
		return
	}
	log.Info().Str("event", event).Msg("published system event")
}

// receiveLoop runs the decoder over src until ctx is cancelled or src is
// closed, handing every burst to r. Every tick drives both the decoder's
// idle check and the heartbeat. It publishes STARTUP before and SHUTDOWN
// after, with the cancellation cause as the reason.
func receiveLoop(ctx context.Context, src gpio.EdgeSource, idle time.Duration, tick <-chan time.Time, r *receiver) error {
	r.lastHeartbeat = r.now()
	r.publishSystem("STARTUP", "")

	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	decTick := make(chan time.Time)
	hbTick := make(chan time.Time)
	go fanOut(tickCtx, tick, decTick, hbTick)

	bursts := make(chan []ir.Pulse)
	done := make(chan error, 1)
	dec := decoder.New(idle)
	go func() {
		done <- dec.Run(ctx, src.Edges(), decTick, r.now, bursts)
		close(bursts)
	}()

loop:
	for {
		select {
		case burst, ok := <-bursts:
			if !ok {
				break loop
			}
			r.handleBurst(burst)
		case <-hbTick:
			r.checkHeartbeat(r.now())
		}
	}
	err := <-done

	reason := "SOURCE_CLOSED"
	var sr stopReason
	if errors.As(context.Cause(ctx), &sr) {
		reason = string(sr)
	}
	log.Info().Str("reason", reason).Int("edges", dec.EdgeCount()).Msg("receiver stopped")
	r.publishSystem("SHUTDOWN", reason)
	return err
}

// fanOut copies every tick from in to each of outs in turn.
func fanOut(ctx context.Context, in <-chan time.Time, outs ...chan<- time.Time) {
	for {
		var t time.Time
		select {
		case t = <-in:
		case <-ctx.Done():
			return
		}
		for _, out := range outs {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}

// watchStop cancels ctx on the first signal or line read from stdin. A
// stdin that ends without a newline (e.g. /dev/null under a service
// manager) does not stop the receiver.
func watchStop(ctx context.Context, cancel context.CancelCauseFunc, sig <-chan os.Signal, stdin io.Reader) {
	if stdin != nil {
		go func() {
			if _, err := bufio.NewReader(stdin).ReadString('\n'); err == nil {
				cancel(stopStdin)
			}
		}()
	}
	go func() {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			cancel(signalReason(s))
		case <-ctx.Done():
		}
	}()
}

func runReceive(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("receive", pflag.ContinueOnError)
	configPath, bindings := commonFlags(fs)
	fs.String("chip", gpio.DefaultChip, "GPIO chip of the IR receiver")
	fs.Int("rx-line", gpio.DefaultRxLine, "line offset of the IR receiver")
	fs.Duration("tick", decoder.DefaultTick, "idle check interval")
	fs.Duration("idle", decoder.DefaultIdle, "quiet period that ends a transmission")
	fs.Duration("heartbeat", config.DefaultHeartbeat, "heartbeat interval (0 to disable)")
	fs.String("broker", "", "MQTT broker address (empty to disable)")
	fs.String("http", "", "HTTP status address (empty to disable)")
	fs.String("statsd", "", "DogStatsD agent address (empty to disable)")
	bindings["gpio.chip"] = "chip"
	bindings["gpio.rx_line"] = "rx-line"
	bindings["receive.tick"] = "tick"
	bindings["receive.idle"] = "idle"
	bindings["receive.heartbeat"] = "heartbeat"
	bindings["mqtt.broker"] = "broker"
	bindings["http.addr"] = "http"
	bindings["statsd.addr"] = "statsd"

	cfg, closer, err := loadConfig(fs, args, configPath, bindings)
	if err != nil {
		return err
	}
	defer closer.Close()

	src, err := gpio.NewRealSource(cfg.GPIO.Chip, cfg.GPIO.RxLine)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if n := src.Dropped(); n > 0 {
			log.Warn().Int("dropped", n).Msg("edges dropped by the gpio reader")
		}
		src.Close()
	}()

	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        cfg.GPIO.Chip,
		RxLine:      cfg.GPIO.RxLine,
		TickMs:      cfg.Receive.Tick.Milliseconds(),
		IdleMs:      cfg.Receive.Idle.Milliseconds(),
		HeartbeatMs: cfg.Receive.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})

	recorder, err := newRecorder(cfg.Statsd.Addr, cfg.Statsd.Namespace, cfg.Statsd.Tags)
	if err != nil {
		return err
	}
	defer closeRecorder(recorder)

	r := &receiver{
		tracker:   tracker,
		metrics:   recorder,
		out:       stdout,
		now:       time.Now,
		newID:     uuid.NewString,
		heartbeat: cfg.Receive.Heartbeat,
	}

	if cfg.MQTT.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    "acremote-" + uuid.NewString()[:8],
			Topic:       cfg.MQTT.Topic,
			SystemTopic: cfg.MQTT.SystemTopic,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		r.publisher = publisher
		r.mqttState = publisher
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	log.Info().
		Str("chip", cfg.GPIO.Chip).
		Int("line", cfg.GPIO.RxLine).
		Dur("tick", cfg.Receive.Tick).
		Dur("idle", cfg.Receive.Idle).
		Dur("heartbeat", cfg.Receive.Heartbeat).
		Str("broker", cfg.MQTT.Broker).
		Msg("receiving")

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	watchStop(ctx, cancel, sigCh, stdin)

	ticker := time.NewTicker(cfg.Receive.Tick)
	defer ticker.Stop()

	fmt.Fprintln(stdout, "Press enter to stop receiving...")
	err = receiveLoop(ctx, src, cfg.Receive.Idle, ticker.C, r)
	fmt.Fprintln(stdout, "Exiting!")
	return err
}
