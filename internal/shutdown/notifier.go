// Package shutdown notifies an external helper when the bridge is asked
// to stop, so it can in turn terminate the simulator process.
package shutdown

import (
	"context"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Notifier is the termination side effect behind an interface so tests
// and configless setups can substitute a no-op.
type Notifier interface {
	Notify(ctx context.Context)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context) {}

// CommandNotifier runs a configured helper command. Its exit code and
// output are logged but never interpreted; the bridge's shutdown does
// not depend on the helper succeeding.
type CommandNotifier struct {
	Command string
	Args    []string
	Timeout time.Duration

	// Injected for tests.
	runCommand func(ctx context.Context, command string, args []string) ([]byte, error)
}

func NewCommandNotifier(command string, args []string) *CommandNotifier {
	return &CommandNotifier{
		Command: command,
		Args:    args,
		Timeout: 10 * time.Second,
		runCommand: func(ctx context.Context, command string, args []string) ([]byte, error) {
			return exec.CommandContext(ctx, command, args...).CombinedOutput()
		},
	}
}

func (n *CommandNotifier) Notify(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()

	log.Printf("shutdown helper starting cmd=%s args=%q", n.Command, n.Args)
	out, err := n.runCommand(runCtx, n.Command, n.Args)
	if err != nil {
		log.Printf("shutdown helper failed cmd=%s: %v", n.Command, err)
	} else {
		log.Printf("shutdown helper done cmd=%s", n.Command)
	}
	if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
		log.Printf("shutdown helper output:\n%s", trimmed)
	}
}
