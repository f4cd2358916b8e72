// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform provides shared command execution functionality.
package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CommandRunner implements the CommandRunner port for real system commands.
type CommandRunner struct {
	logger  zerolog.Logger
	timeout time.Duration
	dryRun  bool
}

// NewCommandRunner creates a new command runner. A positive timeout bounds
// every command so a stuck device cannot hang the caller.
func NewCommandRunner(logger zerolog.Logger, timeout time.Duration, dryRun bool) *CommandRunner {
	return &CommandRunner{
		logger:  logger.With().Str("component", "exec").Logger(),
		timeout: timeout,
		dryRun:  dryRun,
	}
}

// Execute runs a command and discards its output.
func (r *CommandRunner) Execute(ctx context.Context, name string, args ...string) error {
	_, err := r.ExecuteWithOutput(ctx, name, args...)

	return err
}

// ExecuteWithOutput runs a command and returns its combined output. The
// output is returned even when the command fails, since tools such as adb
// explain failures on stdout.
func (r *CommandRunner) ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	r.logger.Debug().Str("cmd", line).Bool("dry_run", r.dryRun).Msg("executing")

	if r.dryRun {
		return "", nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// #nosec G204 - This is intentional command execution with validated input
	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed != "" {
			return string(output), fmt.Errorf("command failed: %w (output: %s)", err, trimmed)
		}

		return string(output), fmt.Errorf("command failed: %w", err)
	}

	return string(output), nil
}

// CommandExists checks if a command is available on the system.
func (r *CommandRunner) CommandExists(name string) bool {
	_, err := exec.LookPath(name)

	return err == nil
}

// MockCommandRunner implements the CommandRunner port for testing.
type MockCommandRunner struct {
	mu      sync.Mutex
	outputs map[string]string // command -> output
	errors  map[string]error  // command -> error
	calls   []string
	missing map[string]bool
}

// NewMockCommandRunner creates a new mock command runner for testing.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
		missing: make(map[string]bool),
	}
}

// SetMockOutput sets the output for a full command line.
func (r *MockCommandRunner) SetMockOutput(command, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outputs[command] = output
}

// SetMockError makes a full command line fail with err.
func (r *MockCommandRunner) SetMockError(command string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors[command] = err
}

// SetMissing makes CommandExists report name as absent.
func (r *MockCommandRunner) SetMissing(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.missing[name] = true
}

// Calls returns the command lines executed so far.
func (r *MockCommandRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// Execute runs a mock command.
func (r *MockCommandRunner) Execute(ctx context.Context, name string, args ...string) error {
	_, err := r.ExecuteWithOutput(ctx, name, args...)

	return err
}

// ExecuteWithOutput returns the preset output and error for the command line.
func (r *MockCommandRunner) ExecuteWithOutput(_ context.Context, name string, args ...string) (string, error) {
	fullCommand := name + " " + strings.Join(args, " ")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, fullCommand)

	return r.outputs[fullCommand], r.errors[fullCommand]
}

// CommandExists reports true unless the name was marked missing.
func (r *MockCommandRunner) CommandExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.missing[name]
}
