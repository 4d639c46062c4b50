package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server"
)

type WorkerCmd struct {
	server.UserConfig   `kong:"embed"`
	server.WorkerConfig `kong:"embed"`
}

func (cmd *WorkerCmd) Validate() error {
	return cmd.WorkerConfig.Validate()
}

func (cmd *WorkerCmd) Run(ctx Context) error {
	cmd.UserConfig.Version = ctx.Version

	app, err := server.NewApp(cmd.UserConfig)
	if err != nil {
		return errors.Wrap(err, "initializing packagebuilder")
	}

	srv, err := server.NewWorkerServer(context.Background(), app, cmd.UserConfig, cmd.WorkerConfig)
	if err != nil {
		app.Close() // nolint: errcheck
		return errors.Wrap(err, "initializing server")
	}
	return srv.Start()
}
