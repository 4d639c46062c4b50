package raw

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/mitchellh/go-homedir"
	"github.com/runatlantis/packagebuilder/server/config/valid"
)

// BuilderCfg is the raw schema for the builder config file.
type BuilderCfg struct {
	BaseDir          string     `yaml:"base_dir" json:"base_dir"`
	CleanupWorkspace *bool      `yaml:"cleanup_workspace,omitempty" json:"cleanup_workspace,omitempty"`
	Toolchain        *Toolchain `yaml:"toolchain,omitempty" json:"toolchain,omitempty"`
	Build            *Build     `yaml:"build,omitempty" json:"build,omitempty"`
	Package          *Package   `yaml:"package,omitempty" json:"package,omitempty"`
	Storage          *Storage   `yaml:"storage,omitempty" json:"storage,omitempty"`
	Metrics          *Metrics   `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

func (b BuilderCfg) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Toolchain),
		validation.Field(&b.Build),
		validation.Field(&b.Package),
		validation.Field(&b.Storage),
		validation.Field(&b.Metrics),
	)
}

// ToValid overlays whatever was set in the file on top of defaultCfg.
func (b BuilderCfg) ToValid(defaultCfg valid.BuilderCfg) (valid.BuilderCfg, error) {
	cfg := defaultCfg

	if b.BaseDir != "" {
		baseDir, err := homedir.Expand(b.BaseDir)
		if err != nil {
			return cfg, err
		}
		cfg.BaseDir = baseDir
	}
	if b.CleanupWorkspace != nil {
		cfg.CleanupWorkspace = *b.CleanupWorkspace
	}
	if b.Toolchain != nil {
		cfg.Toolchain = b.Toolchain.ToValid(cfg.Toolchain)
	}
	if b.Build != nil {
		cfg.Build = b.Build.ToValid(cfg.Build)
	}
	if b.Package != nil {
		cfg.Package = b.Package.ToValid(cfg.Package)
	}
	if b.Storage != nil {
		cfg.Storage = b.Storage.ToValid()
	}
	if b.Metrics != nil {
		cfg.Metrics = b.Metrics.ToValid()
	}
	return cfg, nil
}
