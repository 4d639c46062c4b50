package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/runatlantis/packagebuilder/server/workspace"
)

const (
	gradleCmdName = "gradle"

	projectNameProperty = "name:"
)

// Connection is an open session with the build tool for one project.
type Connection interface {
	// ProjectName resolves the project model and returns its name.
	ProjectName(ctx context.Context) (string, error)
	// Run executes a single task, streaming its output to the log.
	Run(ctx context.Context, task string) error
	Close(ctx context.Context) error
}

type processRunner interface {
	Run(ctx context.Context, cmd *exec.Cmd, cmdName string, stdout, stderr LineHandler) error
}

// GradleConnector connects to projects using the gradle installation
// staged under BaseDir.
type GradleConnector struct {
	BaseDir   string
	BuildTool valid.Distribution
	Runtime   valid.Distribution
	Runner    processRunner
	Logger    logging.Logger
}

func NewGradleConnector(cfg valid.BuilderCfg, runner processRunner, logger logging.Logger) *GradleConnector {
	return &GradleConnector{
		BaseDir:   cfg.BaseDir,
		BuildTool: cfg.Toolchain.BuildTool,
		Runtime:   cfg.Toolchain.Runtime,
		Runner:    runner,
		Logger:    logger,
	}
}

func (c *GradleConnector) Connect(ctx context.Context, ws workspace.Workspace) (Connection, error) {
	binary := c.BuildTool.ExecutablePath(c.BaseDir)
	if _, err := os.Stat(binary); err != nil {
		return nil, errors.Wrapf(err, "locating %s installation", c.BuildTool.Name)
	}

	return &gradleConnection{
		binary:     binary,
		projectDir: ws.SourceDir,
		userHome:   ws.ToolHome,
		javaHome:   c.Runtime.InstallPath(c.BaseDir),
		runner:     c.Runner,
		logger:     c.Logger,
	}, nil
}

type gradleConnection struct {
	binary     string
	projectDir string
	userHome   string
	javaHome   string
	runner     processRunner
	logger     logging.Logger
}

func (g *gradleConnection) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--project-dir", g.projectDir,
		"--gradle-user-home", g.userHome,
		"--console=plain",
		fmt.Sprintf("-Dorg.gradle.java.home=%s", g.javaHome),
	}, args...)

	// cancellation is handled by the process runner
	cmd := exec.Command(g.binary, fullArgs...) // #nosec
	cmd.Dir = g.projectDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("JAVA_HOME=%s", g.javaHome))
	return cmd
}

func (g *gradleConnection) logLines(ctx context.Context, source string) LineHandler {
	w := &logging.LineWriter{Ctx: ctx, Logger: g.logger, Source: source}
	return w.WriteLine
}

func (g *gradleConnection) ProjectName(ctx context.Context) (string, error) {
	var name string
	stdout := func(line string) {
		if name == "" && strings.HasPrefix(line, projectNameProperty) {
			name = strings.TrimSpace(strings.TrimPrefix(line, projectNameProperty))
		}
	}

	cmd := g.command("-q", "properties")
	if err := g.runner.Run(ctx, cmd, gradleCmdName, stdout, g.logLines(ctx, "stderr")); err != nil {
		return "", errors.Wrap(err, "resolving project model")
	}
	if name == "" {
		return "", errors.New("resolving project model: project name not found in properties")
	}
	return name, nil
}

func (g *gradleConnection) Run(ctx context.Context, task string) error {
	cmd := g.command(task)
	if err := g.runner.Run(ctx, cmd, gradleCmdName, g.logLines(ctx, "stdout"), g.logLines(ctx, "stderr")); err != nil {
		return errors.Wrapf(err, "running task %s", task)
	}
	return nil
}

// Close stops the daemons started for this connection's user home.
func (g *gradleConnection) Close(ctx context.Context) error {
	cmd := g.command("--stop")
	if err := g.runner.Run(ctx, cmd, gradleCmdName, g.logLines(ctx, "stdout"), g.logLines(ctx, "stderr")); err != nil {
		return errors.Wrap(err, "stopping build daemons")
	}
	return nil
}
