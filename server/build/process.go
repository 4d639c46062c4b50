package build

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/logging"
)

// Setting the buffer size to 10mb
const BufioScannerBufferSize = 10 * 1024 * 1024

const DefaultGracePeriod = 60 * time.Second

// LineHandler receives process output one line at a time.
type LineHandler func(line string)

// ProcessRunner runs commands in their own process group so that a shutdown
// of packagebuilder can stop the build tool and everything it spawned.
type ProcessRunner struct {
	Logger      logging.Logger
	GracePeriod time.Duration
}

func NewProcessRunner(logger logging.Logger) *ProcessRunner {
	return &ProcessRunner{
		Logger:      logger,
		GracePeriod: DefaultGracePeriod,
	}
}

func (r *ProcessRunner) Run(ctx context.Context, cmd *exec.Cmd, cmdName string, stdout, stderr LineHandler) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrapf(err, "opening %s stdout", cmdName)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrapf(err, "opening %s stderr", cmdName)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %s command", cmdName)
	}
	done := make(chan struct{})
	defer close(done)
	go r.terminateOnCancel(ctx, cmd, done)

	// output must be fully drained before calling Wait
	wg := new(sync.WaitGroup)
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(outPipe, stdout)
	}()
	go func() {
		defer wg.Done()
		scanLines(errPipe, stderr)
	}()
	wg.Wait()

	err = cmd.Wait()
	if ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), "waiting for %s process", cmdName)
	}
	if err != nil {
		return errors.Wrapf(err, "waiting for %s process", cmdName)
	}
	return nil
}

func scanLines(r io.Reader, handle LineHandler) {
	s := bufio.NewScanner(r)
	buf := []byte{}
	s.Buffer(buf, BufioScannerBufferSize)

	for s.Scan() {
		if handle != nil {
			handle(s.Text())
		}
	}
	// drain whatever is left so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

func (r *ProcessRunner) terminateOnCancel(ctx context.Context, cmd *exec.Cmd, processDone chan struct{}) {
	select {
	case <-ctx.Done():
		r.terminate(ctx, cmd, processDone)
	case <-processDone:
	}
}

func (r *ProcessRunner) terminate(ctx context.Context, cmd *exec.Cmd, processDone chan struct{}) {
	r.Logger.WarnContext(ctx, "terminating active process gracefully", map[string]interface{}{
		"pid": cmd.Process.Pid,
	})
	if err := signalGroup(cmd, syscall.SIGTERM); err != nil {
		r.Logger.ErrorContext(ctx, "unable to terminate process", logging.ErrField(err))
	}

	select {
	case <-time.After(r.GracePeriod):
		r.Logger.WarnContext(ctx, "killing process since graceful shutdown is taking too long", map[string]interface{}{
			"pid": cmd.Process.Pid,
		})
		if err := signalGroup(cmd, syscall.SIGKILL); err != nil {
			r.Logger.ErrorContext(ctx, "unable to kill process", logging.ErrField(err))
		}
	case <-processDone:
	}
}

// signalGroup signals every process in the command's process group.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	return syscall.Kill(-cmd.Process.Pid, sig)
}
