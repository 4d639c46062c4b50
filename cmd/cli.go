// Copyright 2017 HootSuite Media Inc.
//
// Licensed under the Apache License, Version 2.0 (the License);
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//    http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an AS IS BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Modified hereafter by contributors to runatlantis/atlantis.

package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type Context struct {
	Version string
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx Context) error {
	fmt.Printf("packagebuilder %s\n", ctx.Version)
	return nil
}

var CLI struct {
	Version VersionCmd `cmd:"version" help:"Print the current packagebuilder version"`
	Run     RunCmd     `cmd:"run" help:"Build and package the job described by a single event"`
	Worker  WorkerCmd  `cmd:"worker" help:"Build and package jobs received from an SQS queue"`
}

var FlagsVars = kong.Vars{
	"help_audit_sns_topic_arn": "Provide SNS topic ARN to publish job outcomes to. " +
		"Sns topic is used for auditing purposes",
	"help_aws_region": "AWS region of the storage, pipeline and queue APIs. " +
		"Defaults to the region of the shared AWS config.",
	"help_builder_config": "Path to a yaml file describing the toolchain, build and packaging recipe. " +
		"If not set, the gradle 3.1 war recipe is used.",
	"help_config":          "Path to yaml config file where flag values can also be set.",
	"help_event_file":      "Path to a file containing the job event, or - to read it from stdin.",
	"help_log_level":       "Log level. Either debug, info, warn, or error.",
	"help_port":            "Port to serve the health check on.",
	"help_queue_url":       "URL of the AWS SQS queue to pull job events from.",
	"help_stats_namespace": "Namespace for aggregating stats.",
}
