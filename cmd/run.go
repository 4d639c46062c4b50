package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server"
)

const stdinEventFile = "-"

type RunCmd struct {
	server.UserConfig `kong:"embed"`
	EventFile         string `default:"-" help:"${help_event_file}"`
}

func (cmd *RunCmd) Run(ctx Context) error {
	cmd.UserConfig.Version = ctx.Version

	payload, err := readEvent(cmd.EventFile, os.Stdin)
	if err != nil {
		return err
	}

	app, err := server.NewApp(cmd.UserConfig)
	if err != nil {
		return errors.Wrap(err, "initializing packagebuilder")
	}
	defer app.Close() // nolint: errcheck

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Executor.HandleEvent(sigCtx, payload)
}

func readEvent(path string, stdin io.Reader) ([]byte, error) {
	if path == stdinEventFile {
		payload, err := io.ReadAll(stdin)
		return payload, errors.Wrap(err, "reading event from stdin")
	}
	payload, err := os.ReadFile(path)
	return payload, errors.Wrapf(err, "reading event file %s", path)
}
