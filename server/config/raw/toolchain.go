package raw

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
)

type Toolchain struct {
	Bucket    string     `yaml:"bucket" json:"bucket"`
	BuildTool *BuildTool `yaml:"build_tool,omitempty" json:"build_tool,omitempty"`
	Runtime   *Runtime   `yaml:"runtime,omitempty" json:"runtime,omitempty"`
}

func (t Toolchain) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Bucket, validation.By(bucketNameValidator)),
		validation.Field(&t.BuildTool),
		validation.Field(&t.Runtime),
	)
}

func (t Toolchain) ToValid(defaults valid.Toolchain) valid.Toolchain {
	toolchain := defaults
	if t.Bucket != "" {
		toolchain.Bucket = t.Bucket
	}
	if t.BuildTool != nil {
		toolchain.BuildTool = t.BuildTool.ToValid(defaults.BuildTool)
	}
	if t.Runtime != nil {
		toolchain.Runtime = t.Runtime.ToValid(defaults.Runtime)
	}
	return toolchain
}

// BuildTool pins the build tool distribution. Only name and version are
// required; the archive key and install dir follow the release convention
// unless overridden.
type BuildTool struct {
	Name       string `yaml:"name" json:"name"`
	Version    string `yaml:"version" json:"version"`
	ArchiveKey string `yaml:"archive_key,omitempty" json:"archive_key,omitempty"`
	Dir        string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Executable string `yaml:"executable,omitempty" json:"executable,omitempty"`
}

func (b BuildTool) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Name, validation.Required),
		validation.Field(&b.Version, validation.Required, validation.By(VersionValidator)),
		validation.Field(&b.Dir, validation.By(relativePathValidator)),
		validation.Field(&b.Executable, validation.By(relativePathValidator)),
	)
}

func (b BuildTool) ToValid(defaults valid.Distribution) valid.Distribution {
	// Validate has already checked the version
	v, _ := version.NewVersion(b.Version)
	d := valid.NewBuildToolDistribution(b.Name, v)
	if b.ArchiveKey != "" {
		d.ArchiveKey = b.ArchiveKey
	}
	if b.Dir != "" {
		d.Dir = b.Dir
	}
	if b.Executable != "" {
		d.Executable = b.Executable
	}
	return d
}

type Runtime struct {
	ArchiveKey string `yaml:"archive_key" json:"archive_key"`
	Dir        string `yaml:"dir" json:"dir"`
	Executable string `yaml:"executable" json:"executable"`
}

func (r Runtime) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Dir, validation.By(relativePathValidator)),
		validation.Field(&r.Executable, validation.By(relativePathValidator)),
	)
}

func (r Runtime) ToValid(defaults valid.Distribution) valid.Distribution {
	d := defaults
	if r.ArchiveKey != "" {
		d.ArchiveKey = r.ArchiveKey
	}
	if r.Dir != "" {
		d.Dir = r.Dir
	}
	if r.Executable != "" {
		d.Executable = r.Executable
	}
	return d
}

func VersionValidator(value interface{}) error {
	strPtr := value.(string)
	if strPtr == "" {
		return nil
	}
	_, err := version.NewVersion(strPtr)
	return errors.Wrapf(err, "version %q could not be parsed", strPtr)
}
