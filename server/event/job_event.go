// Package event decodes the job events a pipeline coordinator sends to
// packagebuilder.
package event

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/models"
)

const s3LocationType = "S3"

// InvalidJobError is returned for payloads that don't describe a job we can
// run. JobID is set whenever the payload carried one so the failure can
// still be reported.
type InvalidJobError struct {
	JobID string
	Err   error
}

func (e *InvalidJobError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("invalid job event: %s", e.Err)
	}
	return fmt.Sprintf("invalid job event for job %s: %s", e.JobID, e.Err)
}

func (e *InvalidJobError) Unwrap() error {
	return e.Err
}

// CodePipelineEvent is the payload CodePipeline hands to a job worker.
type CodePipelineEvent struct {
	Job *CodePipelineJob `json:"CodePipeline.job"`
}

type CodePipelineJob struct {
	ID        string  `json:"id"`
	AccountID string  `json:"accountId"`
	Data      JobData `json:"data"`
}

type JobData struct {
	InputArtifacts  []Artifact `json:"inputArtifacts"`
	OutputArtifacts []Artifact `json:"outputArtifacts"`
}

type Artifact struct {
	Name     string           `json:"name"`
	Location ArtifactLocation `json:"location"`
}

type ArtifactLocation struct {
	Type       string      `json:"type"`
	S3Location *S3Location `json:"s3Location"`
}

type S3Location struct {
	BucketName string `json:"bucketName"`
	ObjectKey  string `json:"objectKey"`
}

func (j CodePipelineJob) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.ID, validation.Required),
		validation.Field(&j.Data),
	)
}

func (d JobData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.InputArtifacts, validation.By(singleArtifact)),
		validation.Field(&d.OutputArtifacts, validation.By(singleArtifact)),
	)
}

func (a Artifact) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Location),
	)
}

func (l ArtifactLocation) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Type, validation.In(s3LocationType)),
		validation.Field(&l.S3Location, validation.Required),
	)
}

func (s S3Location) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.BucketName, validation.Required),
		validation.Field(&s.ObjectKey, validation.Required, validation.By(objectName)),
	)
}

// objectName rejects keys whose final segment can't name a directory.
func objectName(value interface{}) error {
	key, _ := value.(string)
	if key == "" {
		return nil
	}
	switch models.NewObjectRef("", key).Name() {
	case ".", "..", "/":
		return fmt.Errorf("object key %q has no usable final segment", key)
	}
	return nil
}

func singleArtifact(value interface{}) error {
	artifacts, ok := value.([]Artifact)
	if !ok {
		return errors.New("expected a list of artifacts")
	}
	if len(artifacts) != 1 {
		return fmt.Errorf("expected exactly one artifact, got %d", len(artifacts))
	}
	return artifacts[0].Validate()
}

func (a Artifact) ref() models.ObjectRef {
	return models.NewObjectRef(a.Location.S3Location.BucketName, a.Location.S3Location.ObjectKey)
}

// Decode parses and validates a job event payload.
func Decode(payload []byte) (models.Job, error) {
	var e CodePipelineEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return models.Job{}, &InvalidJobError{Err: errors.Wrap(err, "unmarshalling payload")}
	}
	if e.Job == nil {
		return models.Job{}, &InvalidJobError{Err: errors.New("payload has no CodePipeline.job")}
	}
	if err := e.Job.Validate(); err != nil {
		return models.Job{}, &InvalidJobError{JobID: e.Job.ID, Err: err}
	}

	return models.Job{
		ID:     e.Job.ID,
		Input:  e.Job.Data.InputArtifacts[0].ref(),
		Output: e.Job.Data.OutputArtifacts[0].ref(),
	}, nil
}
