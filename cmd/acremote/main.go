// Command acremote sends and receives infrared commands for the AC unit.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sweeney/acremote/internal/config"
	"github.com/sweeney/acremote/internal/logging"
)

const usage = `Tooling for AC remote control via IR.

Usage:
  acremote receive [flags]   print received commands until Enter, SIGINT or SIGTERM
  acremote send [flags]      transmit a command to the AC
  acremote print [flags]     show the frame and timing document for a command
  acremote help              show this message

Run "acremote <command> --help" for the flags of a command.
`

// errUsage marks command-line mistakes; main exits with status 2 for them.
var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("%w: please specify a subcommand: receive, send, print, help", errUsage)
	}

	switch args[0] {
	case "receive":
		return runReceive(args[1:], stdin, stdout)
	case "send":
		return runSend(args[1:], stdout, false)
	case "print":
		return runSend(args[1:], stdout, true)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stdout, usage)
	return fmt.Errorf("%w: unknown subcommand %q", errUsage, args[0])
}

// commonFlags adds the flags every subcommand shares and returns their
// config key bindings.
func commonFlags(fs *pflag.FlagSet) (configPath *string, bindings map[string]string) {
	configPath = fs.String("config", "", "YAML config file")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also log to this file, rotated")
	return configPath, map[string]string{
		"log.level": "log-level",
		"log.file":  "log-file",
	}
}

// loadConfig parses args into fs, loads the configuration and sets up
// logging. The returned closer releases the log file.
func loadConfig(fs *pflag.FlagSet, args []string, configPath *string, bindings map[string]string) (*config.Config, io.Closer, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(*configPath, fs, bindings)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	closer, err := logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, closer, nil
}
