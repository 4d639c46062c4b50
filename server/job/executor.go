// Package job runs a single pipeline job from event to reported outcome.
package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/archive"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	internalContext "github.com/runatlantis/packagebuilder/server/context"
	"github.com/runatlantis/packagebuilder/server/coordinator"
	"github.com/runatlantis/packagebuilder/server/event"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/runatlantis/packagebuilder/server/metrics"
	"github.com/runatlantis/packagebuilder/server/models"
	"github.com/runatlantis/packagebuilder/server/storage"
	"github.com/runatlantis/packagebuilder/server/workspace"
	"github.com/uber-go/tally/v4"
)

type workspaceManager interface {
	Prepare(ctx context.Context, job models.Job) (workspace.Workspace, error)
	Teardown(ctx context.Context, ws workspace.Workspace) error
}

type builder interface {
	Build(ctx context.Context, ws workspace.Workspace) (models.BuildResult, error)
}

type Executor struct {
	Workspaces       workspaceManager
	Storage          storage.Client
	Builder          builder
	Reporter         coordinator.Reporter
	Package          valid.Package
	CleanupWorkspace bool
	Scope            tally.Scope
	Logger           logging.Logger
}

func NewExecutor(
	cfg valid.BuilderCfg,
	workspaces workspaceManager,
	storageClient storage.Client,
	builder builder,
	reporter coordinator.Reporter,
	scope tally.Scope,
	logger logging.Logger,
) *Executor {
	return &Executor{
		Workspaces:       workspaces,
		Storage:          storageClient,
		Builder:          builder,
		Reporter:         reporter,
		Package:          cfg.Package,
		CleanupWorkspace: cfg.CleanupWorkspace,
		Scope:            scope.SubScope(metrics.JobScope),
		Logger:           logger,
	}
}

// HandleEvent decodes a job event and runs the job it describes. Events
// without a job id can't be reported, the decode error is returned as is.
func (e *Executor) HandleEvent(ctx context.Context, payload []byte) error {
	ctx = withInvocationID(ctx)

	job, err := event.Decode(payload)
	if err != nil {
		var invalid *event.InvalidJobError
		if errors.As(err, &invalid) && invalid.JobID != "" {
			ctx = internalContext.WithFields(ctx, map[internalContext.Key]string{
				internalContext.JobIDKey: invalid.JobID,
			})
			e.stateScope(Start).Counter(metrics.Failure).Inc(1)
			return e.fail(ctx, invalid.JobID, &FailedError{State: Start, Err: err})
		}
		e.Logger.ErrorContext(ctx, "dropping job event", logging.ErrField(err))
		return err
	}
	e.stateScope(Start).Counter(metrics.Success).Inc(1)

	return e.Run(ctx, job)
}

// Run takes job through every state and reports the outcome. Any failure
// is reported exactly once and returned as a *FailedError, unless reporting
// fails too, in which case the reporting error is returned.
func (e *Executor) Run(ctx context.Context, job models.Job) error {
	ctx = internalContext.WithFields(withInvocationID(ctx), map[internalContext.Key]string{
		internalContext.JobIDKey:  job.ID,
		internalContext.InputKey:  job.Input.String(),
		internalContext.OutputKey: job.Output.String(),
	})
	sw := e.Scope.Timer(metrics.Latency).Start()
	defer sw.Stop()

	e.Logger.InfoContext(ctx, "starting job", map[string]interface{}{
		"input":  job.Input.String(),
		"output": job.Output.String(),
	})

	if err := e.execute(ctx, job); err != nil {
		return e.fail(ctx, job.ID, err)
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, job models.Job) error {
	var ws workspace.Workspace
	err := e.step(ctx, Bootstrapped, func(ctx context.Context) error {
		var err error
		ws, err = e.Workspaces.Prepare(ctx, job)
		return err
	})
	if e.CleanupWorkspace && ws.Root != "" {
		defer e.teardown(ctx, ws)
	}
	if err != nil {
		return err
	}

	if err := e.step(ctx, Extracted, func(ctx context.Context) error {
		return e.extract(ctx, job.Input, ws)
	}); err != nil {
		return err
	}

	var result models.BuildResult
	if err := e.step(ctx, Built, func(ctx context.Context) error {
		var err error
		result, err = e.Builder.Build(ctx, ws)
		return err
	}); err != nil {
		return err
	}

	if err := e.step(ctx, Packaged, func(ctx context.Context) error {
		_, err := archive.AssembleOutputArchive(
			filepath.Join(ws.SourceDir, filepath.FromSlash(e.Package.Manifest)),
			filepath.Join(ws.SourceDir, filepath.FromSlash(e.Package.ScriptsDir)),
			result.Artifact,
			ws.OutputArchive,
		)
		return err
	}); err != nil {
		return err
	}

	if err := e.step(ctx, Uploaded, func(ctx context.Context) error {
		return e.upload(ctx, ws.OutputArchive, job.Output)
	}); err != nil {
		return err
	}

	return e.step(ctx, ReportedSuccess, func(ctx context.Context) error {
		return e.Reporter.ReportSuccess(ctx, job.ID)
	})
}

func (e *Executor) stateScope(state State) tally.Scope {
	return e.Scope.Tagged(map[string]string{metrics.StateTag: state.String()})
}

func (e *Executor) step(ctx context.Context, state State, fn func(ctx context.Context) error) error {
	ctx = internalContext.WithFields(ctx, map[internalContext.Key]string{
		internalContext.StateKey: state.String(),
	})
	scope := e.stateScope(state)

	if err := fn(ctx); err != nil {
		scope.Counter(metrics.Failure).Inc(1)
		return &FailedError{State: state, Err: err}
	}
	scope.Counter(metrics.Success).Inc(1)
	e.Logger.DebugContext(ctx, fmt.Sprintf("job reached %s", state))
	return nil
}

func (e *Executor) extract(ctx context.Context, input models.ObjectRef, ws workspace.Workspace) error {
	body, err := e.Storage.Get(ctx, input)
	if err != nil {
		return errors.Wrap(err, "fetching input")
	}
	defer body.Close()

	if _, err := archive.Extract(body, ws.SourceDir); err != nil {
		return errors.Wrapf(err, "extracting %s", input)
	}
	return nil
}

func (e *Executor) upload(ctx context.Context, path string, output models.ObjectRef) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening output archive")
	}
	defer f.Close()

	if err := e.Storage.Put(ctx, output, f, storage.PutOptions{ServerSideEncryption: true}); err != nil {
		return errors.Wrap(err, "uploading output archive")
	}
	e.Logger.InfoContext(ctx, fmt.Sprintf("output to %s", output))
	return nil
}

func (e *Executor) teardown(ctx context.Context, ws workspace.Workspace) {
	if err := e.Workspaces.Teardown(ctx, ws); err != nil {
		e.Logger.WarnContext(ctx, "unable to tear down workspace", logging.ErrField(err))
	}
}

func (e *Executor) fail(ctx context.Context, jobID string, err error) error {
	e.Logger.ErrorContext(ctx, "job failed", map[string]interface{}{
		internalContext.ErrKey.String(): err.Error(),
		"stacktrace":                    fmt.Sprintf("%+v", err),
	})

	// shutdown cancels ctx, the failure still has to reach the coordinator
	reportCtx := context.WithoutCancel(ctx)
	scope := e.stateScope(ReportedFailure)
	if reportErr := e.Reporter.ReportFailure(reportCtx, jobID, coordinator.FailureKindJobFailed, err.Error()); reportErr != nil {
		scope.Counter(metrics.Failure).Inc(1)
		e.Logger.ErrorContext(ctx, "unable to report job failure", logging.ErrField(reportErr))
		return errors.Wrap(reportErr, "reporting job failure")
	}
	scope.Counter(metrics.Success).Inc(1)
	return err
}

func withInvocationID(ctx context.Context) context.Context {
	if _, ok := ctx.Value(internalContext.InvocationIDKey).(string); ok {
		return ctx
	}
	return internalContext.WithFields(ctx, map[internalContext.Key]string{
		internalContext.InvocationIDKey: uuid.NewString(),
	})
}
