package raw

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
)

const ValidBucketNameRegEx = "^[a-z0-9][a-z0-9.-]*[a-z0-9]$"

type Build struct {
	Task            string `yaml:"task" json:"task"`
	OutputDir       string `yaml:"output_dir" json:"output_dir"`
	ArtifactPattern string `yaml:"artifact_pattern" json:"artifact_pattern"`
}

func (b Build) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Task, validation.Match(regexp.MustCompile(`^[A-Za-z0-9:_-]*$`)).Error("must be a single task name")),
		validation.Field(&b.OutputDir, validation.By(relativePathValidator)),
		validation.Field(&b.ArtifactPattern, validation.By(globValidator)),
	)
}

func (b Build) ToValid(defaults valid.Build) valid.Build {
	build := defaults
	if b.Task != "" {
		build.Task = b.Task
	}
	if b.OutputDir != "" {
		build.OutputDir = b.OutputDir
	}
	if b.ArtifactPattern != "" {
		build.ArtifactPattern = b.ArtifactPattern
	}
	return build
}

type Package struct {
	Manifest   string `yaml:"manifest" json:"manifest"`
	ScriptsDir string `yaml:"scripts_dir" json:"scripts_dir"`
}

func (p Package) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Manifest, validation.By(relativePathValidator)),
		validation.Field(&p.ScriptsDir, validation.By(relativePathValidator)),
	)
}

func (p Package) ToValid(defaults valid.Package) valid.Package {
	pkg := defaults
	if p.Manifest != "" {
		pkg.Manifest = p.Manifest
	}
	if p.ScriptsDir != "" {
		pkg.ScriptsDir = p.ScriptsDir
	}
	return pkg
}

func bucketNameValidator(value interface{}) error {
	bucketName, _ := value.(string)
	if bucketName == "" {
		return nil
	}
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return errors.New("bucket names must be between 3 and 63 characters")
	}
	if !regexp.MustCompile(ValidBucketNameRegEx).MatchString(bucketName) {
		return errors.New("bucket names can only consist of lowercase letters, numbers, dots(.) and hyphens(-)")
	}
	return nil
}

// relativePathValidator only accepts paths that stay inside whatever
// directory they are resolved against.
func relativePathValidator(value interface{}) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) || path.IsAbs(p) {
		return errors.New("must be a relative path")
	}
	cleaned := path.Clean(filepath.ToSlash(p))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return errors.New("must not point outside of its parent directory")
	}
	return nil
}

func globValidator(value interface{}) error {
	pattern, _ := value.(string)
	if pattern == "" {
		return nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	return nil
}
