package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/graymeta/stow"
	"github.com/hashicorp/go-version"
	"github.com/runatlantis/packagebuilder/server/config"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseBuilderCfg_NotExist(t *testing.T) {
	r := config.ParserValidator{}
	_, err := r.ParseBuilderCfg("/not/exist.yaml", valid.NewDefaultBuilderCfg())
	assert.ErrorContains(t, err, "unable to read /not/exist.yaml file")
}

func TestParseBuilderCfg_EmptyFileUsesDefaults(t *testing.T) {
	r := config.ParserValidator{}
	cfg, err := r.ParseBuilderCfg(writeConfig(t, "builder.yaml", ""), valid.NewDefaultBuilderCfg())
	require.NoError(t, err)
	assert.Equal(t, valid.NewDefaultBuilderCfg(), cfg)
}

func TestParseBuilderCfg_NotYaml(t *testing.T) {
	r := config.ParserValidator{}
	_, err := r.ParseBuilderCfg(writeConfig(t, "builder.toml", "base_dir = 1"), valid.NewDefaultBuilderCfg())
	assert.ErrorContains(t, err, "must be yaml")
}

func TestParseBuilderCfg_Full(t *testing.T) {
	r := config.ParserValidator{}
	cfg, err := r.ParseBuilderCfg(writeConfig(t, "builder.yml", `
base_dir: /var/builds
cleanup_workspace: true
toolchain:
  bucket: my-toolchains
  build_tool:
    name: gradle
    version: "4.10.3"
  runtime:
    archive_key: jdk-11.zip
    dir: jdk-11
    executable: bin/java
build:
  task: bootWar
  output_dir: out/libs
  artifact_pattern: "*.jar"
package:
  manifest: deploy/appspec.yml
  scripts_dir: deploy/scripts
storage:
  stow:
    kind: google
    config:
      project_id: my-project
metrics:
  statsd:
    host: localhost
    port: "8125"
    tag_separator: ";"
`), valid.NewDefaultBuilderCfg())
	require.NoError(t, err)

	assert.Equal(t, valid.BuilderCfg{
		BaseDir:          "/var/builds",
		CleanupWorkspace: true,
		Toolchain: valid.Toolchain{
			Bucket: "my-toolchains",
			BuildTool: valid.Distribution{
				Name:       "gradle",
				Version:    version.Must(version.NewVersion("4.10.3")),
				ArchiveKey: "gradle-4.10.3-bin.zip",
				Dir:        "gradle-4.10.3",
				Executable: "bin/gradle",
			},
			Runtime: valid.Distribution{
				Name:       "jdk",
				ArchiveKey: "jdk-11.zip",
				Dir:        "jdk-11",
				Executable: "bin/java",
			},
		},
		Build: valid.Build{
			Task:            "bootWar",
			OutputDir:       "out/libs",
			ArtifactPattern: "*.jar",
		},
		Package: valid.Package{
			Manifest:   "deploy/appspec.yml",
			ScriptsDir: "deploy/scripts",
		},
		Storage: valid.StoreConfig{
			BackendType: valid.StowBackend,
			Kind:        "google",
			Config:      stow.ConfigMap{"project_id": "my-project"},
		},
		Metrics: valid.Metrics{
			Statsd: &valid.Statsd{Host: "localhost", Port: "8125", TagSeparator: ";"},
		},
	}, cfg)
}

func TestParseBuilderCfg_PartialOverride(t *testing.T) {
	r := config.ParserValidator{}
	cfg, err := r.ParseBuilderCfgData([]byte(`
storage:
  s3:
    region: eu-west-1
`), valid.NewDefaultBuilderCfg())
	require.NoError(t, err)

	expected := valid.NewDefaultBuilderCfg()
	expected.Storage = valid.StoreConfig{BackendType: valid.S3Backend, Region: "eu-west-1"}
	assert.Equal(t, expected, cfg)
}

func TestParseBuilderCfg_Invalid(t *testing.T) {
	cases := []struct {
		description string
		input       string
		expErr      string
	}{
		{
			description: "unknown key",
			input:       "unknown: value",
			expErr:      "field unknown not found",
		},
		{
			description: "bad version",
			input: `
toolchain:
  build_tool:
    name: gradle
    version: "not-a-version"
`,
			expErr: "could not be parsed",
		},
		{
			description: "missing build tool name",
			input: `
toolchain:
  build_tool:
    version: "3.1"
`,
			expErr: "name: cannot be blank",
		},
		{
			description: "bad bucket name",
			input: `
toolchain:
  bucket: Not_A_Bucket
`,
			expErr: "bucket names can only consist of",
		},
		{
			description: "escaping output dir",
			input: `
build:
  output_dir: ../../etc
`,
			expErr: "must not point outside of its parent directory",
		},
		{
			description: "absolute scripts dir",
			input: `
package:
  scripts_dir: /scripts
`,
			expErr: "must be a relative path",
		},
		{
			description: "bad artifact pattern",
			input: `
build:
  artifact_pattern: "[*.war"
`,
			expErr: "invalid pattern",
		},
		{
			description: "unsupported stow kind",
			input: `
storage:
  stow:
    kind: dropbox
`,
			expErr: "kind: must be a valid value",
		},
		{
			description: "statsd without port",
			input: `
metrics:
  statsd:
    host: localhost
`,
			expErr: "port: cannot be blank",
		},
		{
			description: "statsd with unsupported tag separator",
			input: `
metrics:
  statsd:
    host: localhost
    port: "8125"
    tag_separator: "|"
`,
			expErr: "tag_separator: must be a valid value",
		},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			r := config.ParserValidator{}
			_, err := r.ParseBuilderCfgData([]byte(c.input), valid.NewDefaultBuilderCfg())
			assert.ErrorContains(t, err, c.expErr)
		})
	}
}
