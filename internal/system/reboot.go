package system

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const rebootTimeout = 30 * time.Second

// Rebooter restarts the host by running a command. Reboot returns at once;
// the command runs on its own goroutine and only its outcome is logged.
type Rebooter struct {
	Command []string
	// DryRun logs the command instead of running it.
	DryRun bool

	run func(ctx context.Context, name string, args ...string) error
	wg  sync.WaitGroup

	mu       sync.Mutex
	running  bool
	rebooted bool
}

// NewRebooter returns a Rebooter running command.
func NewRebooter(command []string, dryRun bool) *Rebooter {
	return &Rebooter{Command: command, DryRun: dryRun, run: runCommand}
}

// Reboot requests a restart. A request made while the command is running
// joins it, and once the command succeeded later requests are no-ops. A
// failed command is run again on the next request.
func (r *Rebooter) Reboot() {
	if len(r.Command) == 0 {
		log.Warn().Msg("Reboot requested but no reboot command is configured")
		return
	}
	if r.DryRun {
		log.Warn().Strs("command", r.Command).Msg("Dry run, not rebooting")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.rebooted {
		log.Debug().Bool("running", r.running).Msg("Reboot already requested")
		return
	}
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), rebootTimeout)
		defer cancel()

		log.Warn().Strs("command", r.Command).Msg("Rebooting to apply system firmware")
		err := r.run(ctx, r.Command[0], r.Command[1:]...)
		if err != nil {
			log.Error().Err(err).Strs("command", r.Command).Msg("Reboot command failed")
		}

		r.mu.Lock()
		r.running = false
		r.rebooted = err == nil
		r.mu.Unlock()
	}()
}

// Wait blocks until a running reboot command returned.
func (r *Rebooter) Wait() {
	r.wg.Wait()
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
