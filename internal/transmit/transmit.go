// Package transmit hands timing documents to the external IR replay tool.
package transmit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/acremote/internal/ir"
)

// Transmitter sends a serialized timing document.
type Transmitter interface {
	Transmit(ctx context.Context, doc []byte) error
}

// ToolError is returned when the replay tool exits unsuccessfully. It
// carries the tool's output for diagnosis.
type ToolError struct {
	Err    error
	Stdout string
	Stderr string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("replay tool failed: %v", e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Irrp runs irrp.py in playback mode: the document is written to File and
// replayed on Pin under the code name ir.CodeName.
type Irrp struct {
	Python string
	Script string
	File   string
	Pin    int
}

// Args returns the arguments passed to the interpreter.
func (t *Irrp) Args() []string {
	return []string{
		t.Script,
		"-g" + strconv.Itoa(t.Pin),
		"-f" + t.File,
		"-p",
		ir.CodeName,
	}
}

// Transmit writes doc to the record file and runs the tool. A non-zero exit
// yields a *ToolError.
func (t *Irrp) Transmit(ctx context.Context, doc []byte) error {
	if err := os.WriteFile(t.File, doc, 0o644); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Python, t.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Str("component", "transmit").Strs("args", cmd.Args).Msg("running replay tool")
	if err := cmd.Run(); err != nil {
		return &ToolError{Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
	}
	return nil
}

// FakeTransmitter records documents for test assertions.
type FakeTransmitter struct {
	// Docs contains every document passed to Transmit.
	Docs [][]byte

	// Err, if set, is returned by Transmit after recording the document.
	Err error
}

// Transmit records doc.
func (f *FakeTransmitter) Transmit(_ context.Context, doc []byte) error {
	f.Docs = append(f.Docs, doc)
	return f.Err
}
