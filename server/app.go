package server

import (
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/aws/sns"
	"github.com/runatlantis/packagebuilder/server/build"
	"github.com/runatlantis/packagebuilder/server/config"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/coordinator"
	"github.com/runatlantis/packagebuilder/server/job"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/runatlantis/packagebuilder/server/metrics"
	"github.com/runatlantis/packagebuilder/server/storage"
	"github.com/runatlantis/packagebuilder/server/workspace"
	"github.com/uber-go/tally/v4"
)

// App is everything needed to run jobs, shared by the one-shot and worker
// commands.
type App struct {
	Executor    *job.Executor
	Logger      logging.Logger
	Scope       tally.Scope
	StatsCloser io.Closer
}

func NewApp(userConfig UserConfig) (*App, error) {
	logger, err := logging.NewLoggerFromLevel(userConfig.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build context logger")
	}

	builderCfg, err := LoadBuilderCfg(userConfig.BuilderConfig)
	if err != nil {
		return nil, err
	}

	scope, closer, err := metrics.NewScope(builderCfg.Metrics, userConfig.StatsNamespace)
	if err != nil {
		return nil, errors.Wrap(err, "creating stats scope")
	}

	awsConfig := aws.NewConfig()
	if userConfig.AWSRegion != "" {
		awsConfig = awsConfig.WithRegion(userConfig.AWSRegion)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}

	storageClient, err := storage.NewClient(builderCfg.Storage, sess)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}

	var reporter coordinator.Reporter = coordinator.NewCodePipelineReporter(sess, userConfig.AWSRegion)
	if userConfig.AuditSnsTopicArn != "" {
		reporter = coordinator.NewAuditReporter(reporter, sns.NewWriter(sess, userConfig.AuditSnsTopicArn), logger)
	}

	connector := build.NewGradleConnector(builderCfg, build.NewProcessRunner(logger), logger)
	executor := job.NewExecutor(
		builderCfg,
		workspace.NewManager(builderCfg, storageClient, logger),
		storageClient,
		build.NewInvoker(connector, builderCfg.Build, logger),
		reporter,
		scope,
		logger,
	)

	return &App{
		Executor:    executor,
		Logger:      logger,
		Scope:       scope,
		StatsCloser: closer,
	}, nil
}

// LoadBuilderCfg returns the default recipe when path is empty.
func LoadBuilderCfg(path string) (valid.BuilderCfg, error) {
	builderCfg := valid.NewDefaultBuilderCfg()
	if path == "" {
		return builderCfg, nil
	}
	validator := &config.ParserValidator{}
	builderCfg, err := validator.ParseBuilderCfg(path, builderCfg)
	if err != nil {
		return builderCfg, errors.Wrapf(err, "parsing %s file", path)
	}
	return builderCfg, nil
}

// Close flushes stats and logs.
func (a *App) Close() error {
	if err := a.StatsCloser.Close(); err != nil {
		a.Logger.Error(err.Error())
	}
	return a.Logger.Close()
}
