package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sweeney/acremote/internal/command"
	"github.com/sweeney/acremote/internal/gpio"
	"github.com/sweeney/acremote/internal/ir"
	"github.com/sweeney/acremote/internal/metrics"
	"github.com/sweeney/acremote/internal/transmit"
)

// settings are the raw send flags.
type settings struct {
	Temperature    int
	TemperatureSet bool
	Fan            string
	Mode           string
	Off            bool
}

// parseSettings turns flags into a command. --off ignores every other flag
// and always sends Cool. Otherwise a given temperature must be in range, and
// one is required except in fan mode, where it is not transmitted.
func parseSettings(s settings) (command.Command, error) {
	if s.Off {
		return command.Command{On: false, Mode: command.ModeCool}, nil
	}

	if s.TemperatureSet && (s.Temperature < command.MinTemperature || s.Temperature > command.MaxTemperature) {
		return command.Command{}, fmt.Errorf("%w: got %d", command.ErrTemperatureRange, s.Temperature)
	}
	mode, err := command.ParseMode(s.Mode)
	if err != nil {
		return command.Command{}, err
	}
	fan, err := command.ParseFan(s.Fan)
	if err != nil {
		return command.Command{}, err
	}
	c := command.Command{On: true, Mode: mode, Fan: fan}
	if mode != command.ModeFan {
		if !s.TemperatureSet {
			return command.Command{}, errors.New("temperature argument is required when not requesting 'off' state")
		}
		c.Temperature = s.Temperature
	}
	if err := c.Validate(); err != nil {
		return command.Command{}, err
	}
	return c, nil
}

func runSend(args []string, stdout io.Writer, printOnly bool) error {
	name := "send"
	if printOnly {
		name = "print"
	}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath, bindings := commonFlags(fs)

	var s settings
	fs.IntVarP(&s.Temperature, "temperature", "t", 0, "temperature in the range 17°C to 30°C")
	fs.StringVarP(&s.Fan, "fan", "f", "auto", "fan speed: low, medium, high, auto")
	fs.StringVarP(&s.Mode, "mode", "m", "cool", "operating mode: cool, heat, dry, fan, auto")
	fs.BoolVar(&s.Off, "off", false, "turn the AC off")
	fs.Int("pin", gpio.DefaultTxPin, "BCM pin of the IR LED")
	fs.String("script", "./irrp.py", "path of the irrp.py replay tool")
	fs.String("statsd", "", "DogStatsD agent address (empty to disable)")
	bindings["gpio.tx_pin"] = "pin"
	bindings["transmit.script"] = "script"
	bindings["statsd.addr"] = "statsd"

	cfg, closer, err := loadConfig(fs, args, configPath, bindings)
	if err != nil {
		return err
	}
	defer closer.Close()

	s.TemperatureSet = fs.Changed("temperature")
	c, err := parseSettings(s)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if printOnly {
		return printCommand(c, stdout)
	}

	recorder, err := newRecorder(cfg.Statsd.Addr, cfg.Statsd.Namespace, cfg.Statsd.Tags)
	if err != nil {
		return err
	}
	defer closeRecorder(recorder)

	ctx := context.Background()
	if cfg.Transmit.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Transmit.Timeout)
		defer cancel()
	}

	tx := &transmit.Irrp{
		Python: cfg.Transmit.Python,
		Script: cfg.Transmit.Script,
		File:   cfg.Transmit.File,
		Pin:    cfg.GPIO.TxPin,
	}
	return send(ctx, c, tx, recorder, stdout)
}

// send transmits c, reporting progress and the tool's diagnostics on stdout.
func send(ctx context.Context, c command.Command, tx transmit.Transmitter, recorder metrics.Recorder, out io.Writer) error {
	frame := ir.Assemble(command.Encode(c))
	fmt.Fprintf(out, "Signal constructed: %s\n", ir.FormatFrame(frame))

	doc, err := ir.EncodeTimings(frame)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}

	fmt.Fprintln(out, "Sending...")
	log.Info().Str("component", "send").Stringer("command", c).Msg("transmitting")

	tags := []string{"mode:" + strings.ToLower(string(c.Mode))}
	if err := tx.Transmit(ctx, doc); err != nil {
		recorder.Incr(metrics.CommandSendError, tags...)

		var toolErr *transmit.ToolError
		if errors.As(err, &toolErr) {
			fmt.Fprintln(out, "---")
			fmt.Fprintln(out, "An error seems to have occurred during sending.")
			fmt.Fprintf(out, "STDOUT:\n%s\n", toolErr.Stdout)
			fmt.Fprintf(out, "STDERR:\n%s\n", toolErr.Stderr)
			fmt.Fprintln(out, "---")
		}
		return fmt.Errorf("send %s: %w", c, err)
	}

	recorder.Incr(metrics.CommandSent, tags...)
	fmt.Fprintln(out, "Sent!")
	return nil
}

// printCommand shows what send would transmit.
func printCommand(c command.Command, out io.Writer) error {
	rec := command.Encode(c)
	frame := ir.Assemble(rec)

	doc, err := ir.EncodeTimings(frame)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}

	fmt.Fprintf(out, "Command: %s\n", c)
	fmt.Fprintf(out, "Record: %s\n", rec)
	fmt.Fprintf(out, "Signal constructed: %s\n", ir.FormatFrame(frame))
	fmt.Fprintf(out, "Timings: %s\n", doc)
	return nil
}

func newRecorder(addr, namespace string, tags []string) (metrics.Recorder, error) {
	if addr == "" {
		return metrics.Nop{}, nil
	}
	r, err := metrics.NewStatsd(addr, namespace, tags)
	if err != nil {
		return nil, fmt.Errorf("init statsd: %w", err)
	}
	return r, nil
}

func closeRecorder(r metrics.Recorder) {
	if c, ok := r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close statsd client")
		}
	}
}
