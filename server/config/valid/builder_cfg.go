package valid

import (
	"fmt"
	"path/filepath"

	"github.com/graymeta/stow"
	"github.com/hashicorp/go-version"
)

type BackendType string

const (
	S3Backend   BackendType = "s3"
	StowBackend BackendType = "stow"
)

const (
	DefaultBaseDir          = "/tmp"
	DefaultToolchainBucket  = "java-package-builder"
	DefaultBuildToolName    = "gradle"
	DefaultBuildToolVersion = "3.1"
	DefaultBuildToolExec    = "bin/gradle"
	DefaultRuntimeArchive   = "jdk.zip"
	DefaultRuntimeDir       = "jdk"
	DefaultRuntimeExec      = "bin/java"
	DefaultBuildTask        = "war"
	DefaultOutputDir        = "build/libs"
	DefaultArtifactPattern  = "*.war"
	DefaultManifest         = "appspec.yml"
	DefaultScriptsDir       = "scripts"
)

// BuilderCfg is the fully resolved recipe configuration for a job.
type BuilderCfg struct {
	BaseDir          string
	CleanupWorkspace bool
	Toolchain        Toolchain
	Build            Build
	Package          Package
	Storage          StoreConfig
	Metrics          Metrics
}

// Toolchain describes the two distributions staged before every build.
type Toolchain struct {
	Bucket    string
	BuildTool Distribution
	Runtime   Distribution
}

// Distribution is an installation delivered as a zip archive whose contents
// unpack into Dir under the base directory.
type Distribution struct {
	Name       string
	Version    *version.Version
	ArchiveKey string
	Dir        string
	// Executable is the entry point relative to Dir.
	Executable string
}

// ExecutablePath resolves the distribution's entry point under baseDir.
func (d Distribution) ExecutablePath(baseDir string) string {
	return filepath.Join(baseDir, d.Dir, filepath.FromSlash(d.Executable))
}

func (d Distribution) InstallPath(baseDir string) string {
	return filepath.Join(baseDir, d.Dir)
}

type Build struct {
	Task            string
	OutputDir       string
	ArtifactPattern string
}

type Package struct {
	Manifest   string
	ScriptsDir string
}

type StoreConfig struct {
	BackendType BackendType
	Region      string
	// Kind and Config are only used by the stow backend.
	Kind   string
	Config stow.ConfigMap
}

type Metrics struct {
	Statsd *Statsd
}

type Statsd struct {
	Port string
	Host string
	// TagSeparator joins tags onto metric names. Empty means ",".
	TagSeparator string
}

// NewBuildToolDistribution derives the conventional layout of a build tool
// release, e.g. gradle 3.1 ships as gradle-3.1-bin.zip unpacking to gradle-3.1.
func NewBuildToolDistribution(name string, v *version.Version) Distribution {
	dir := fmt.Sprintf("%s-%s", name, v.Original())
	return Distribution{
		Name:       name,
		Version:    v,
		ArchiveKey: fmt.Sprintf("%s-bin.zip", dir),
		Dir:        dir,
		Executable: DefaultBuildToolExec,
	}
}

func NewDefaultBuilderCfg() BuilderCfg {
	return BuilderCfg{
		BaseDir: DefaultBaseDir,
		Toolchain: Toolchain{
			Bucket:    DefaultToolchainBucket,
			BuildTool: NewBuildToolDistribution(DefaultBuildToolName, version.Must(version.NewVersion(DefaultBuildToolVersion))),
			Runtime: Distribution{
				Name:       "jdk",
				ArchiveKey: DefaultRuntimeArchive,
				Dir:        DefaultRuntimeDir,
				Executable: DefaultRuntimeExec,
			},
		},
		Build: Build{
			Task:            DefaultBuildTask,
			OutputDir:       DefaultOutputDir,
			ArtifactPattern: DefaultArtifactPattern,
		},
		Package: Package{
			Manifest:   DefaultManifest,
			ScriptsDir: DefaultScriptsDir,
		},
		Storage: StoreConfig{
			BackendType: S3Backend,
		},
	}
}
