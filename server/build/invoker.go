// Package build drives the external build tool against a staged workspace
// and locates the binary it produced.
package build

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/runatlantis/packagebuilder/server/models"
	"github.com/runatlantis/packagebuilder/server/workspace"
)

var ErrArtifactNotFound = errors.New("no build artifact found")

type Connector interface {
	Connect(ctx context.Context, ws workspace.Workspace) (Connection, error)
}

type Invoker struct {
	Connector Connector
	Recipe    valid.Build
	Logger    logging.Logger
}

// NewInvoker returns an Invoker that builds recipe through connector.
func NewInvoker(connector Connector, recipe valid.Build, logger logging.Logger) *Invoker {
	return &Invoker{
		Connector: connector,
		Recipe:    recipe,
		Logger:    logger,
	}
}

// Build runs the recipe's task in the workspace's source directory and
// returns the produced artifact.
func (i *Invoker) Build(ctx context.Context, ws workspace.Workspace) (models.BuildResult, error) {
	if err := i.run(ctx, ws); err != nil {
		return models.BuildResult{}, err
	}

	outputDir := filepath.Join(ws.SourceDir, filepath.FromSlash(i.Recipe.OutputDir))
	artifact, err := LocateArtifact(outputDir, i.Recipe.ArtifactPattern)
	if err != nil {
		return models.BuildResult{}, err
	}
	i.Logger.InfoContext(ctx, "located build artifact", map[string]interface{}{
		"artifact": artifact,
	})
	return models.BuildResult{Artifact: artifact}, nil
}

func (i *Invoker) run(ctx context.Context, ws workspace.Workspace) error {
	conn, err := i.Connector.Connect(ctx, ws)
	if err != nil {
		return errors.Wrap(err, "connecting to build tool")
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			i.Logger.WarnContext(ctx, "unable to close build tool connection", logging.ErrField(err))
		}
	}()

	name, err := conn.ProjectName(ctx)
	if err != nil {
		return err
	}
	i.Logger.InfoContext(ctx, "building project", map[string]interface{}{
		"project": name,
		"task":    i.Recipe.Task,
	})

	return conn.Run(ctx, i.Recipe.Task)
}

// LocateArtifact returns the lexically first regular file directly inside
// dir whose name matches pattern.
func LocateArtifact(dir, pattern string) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", errors.Wrapf(ErrArtifactNotFound, "%s does not exist", dir)
	}
	if err != nil {
		return "", errors.Wrapf(err, "listing %s", dir)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		matched, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return "", errors.Wrapf(err, "matching %s", pattern)
		}
		if matched {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", errors.Wrapf(ErrArtifactNotFound, "no file matching %s in %s", pattern, dir)
}
