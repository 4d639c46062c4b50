package server

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/runatlantis/packagebuilder/server/logging"
)

type ConfigFlag string

func (c ConfigFlag) BeforeResolve(kongCli *kong.Kong, ctx *kong.Context, trace *kong.Path) error {
	path := string(ctx.FlagValue(trace.Flag).(ConfigFlag))
	if path == "" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		kong.Configuration(kongyaml.Loader).Apply(kongCli)
	case ".json":
		kong.Configuration(kong.JSON).Apply(kongCli)
	default:
		return fmt.Errorf("no loader for config with extension %q found", ext)
	}
	resolver, err := kongCli.LoadConfig(path)
	if err != nil {
		return err
	}
	ctx.AddResolver(resolver)
	return nil
}

// URL with http or https schema
type HttpUrl struct { //nolint:revive
	*url.URL
}

func (h *HttpUrl) Decode(ctx *kong.DecodeContext) error {
	var rawUrl string
	err := ctx.Scan.PopValueInto("string", &rawUrl)
	if err != nil {
		return err
	}
	parsedUrl, err := ParseHttpUrl(rawUrl)
	if err != nil {
		return err
	}
	*h = parsedUrl
	return nil
}

func ParseHttpUrl(rawUrl string) (HttpUrl, error) { //nolint:revive
	parsedUrl, err := url.Parse(rawUrl)
	if err != nil {
		return HttpUrl{}, err
	}
	if parsedUrl.Scheme != "http" && parsedUrl.Scheme != "https" {
		return HttpUrl{}, fmt.Errorf("failed to parse HTTP url: protocol %q is not supported", parsedUrl.Scheme)
	}
	return HttpUrl{parsedUrl}, nil
}

func (h *HttpUrl) String() string {
	if h != nil && h.URL != nil {
		return h.URL.String()
	}
	return ""
}

// UserConfig holds the flags shared by every command that runs jobs.
type UserConfig struct {
	Config           ConfigFlag       `help:"${help_config}"`
	BuilderConfig    string           `type:"path" help:"${help_builder_config}"`
	LogLevel         logging.LogLevel `default:"info" help:"${help_log_level}"`
	AWSRegion        string           `name:"aws-region" help:"${help_aws_region}"`
	StatsNamespace   string           `default:"packagebuilder" help:"${help_stats_namespace}"`
	AuditSnsTopicArn string           `help:"${help_audit_sns_topic_arn}"`
	Version          string           `kong:"-"`
}

// WorkerConfig adds the flags of the long running queue worker.
type WorkerConfig struct {
	QueueURL HttpUrl `name:"queue-url" required:"" help:"${help_queue_url}"`
	Port     int     `default:"4141" help:"${help_port}"`
}

func (w WorkerConfig) Validate() error {
	if w.Port <= 0 || w.Port > 65535 {
		return fmt.Errorf("port %d is out of range", w.Port)
	}
	return nil
}
