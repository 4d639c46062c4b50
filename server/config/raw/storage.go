package raw

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/graymeta/stow"
	"github.com/runatlantis/packagebuilder/server/config/valid"
)

var stowKinds = []interface{}{"google", "azure", "local"}

// Storage selects the blob store backend. Exactly one backend should be set;
// S3 wins if both are.
type Storage struct {
	S3   *S3   `yaml:"s3,omitempty" json:"s3,omitempty"`
	Stow *Stow `yaml:"stow,omitempty" json:"stow,omitempty"`
}

type S3 struct {
	Region string `yaml:"region" json:"region"`
}

type Stow struct {
	Kind   string            `yaml:"kind" json:"kind"`
	Config map[string]string `yaml:"config" json:"config"`
}

func (s Storage) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.S3),
		validation.Field(&s.Stow),
	)
}

func (s Stow) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.Required, validation.In(stowKinds...)),
	)
}

func (s Storage) ToValid() valid.StoreConfig {
	switch {
	case s.S3 != nil:
		return valid.StoreConfig{
			BackendType: valid.S3Backend,
			Region:      s.S3.Region,
		}
	case s.Stow != nil:
		cfg := stow.ConfigMap{}
		for k, v := range s.Stow.Config {
			cfg[k] = v
		}
		return valid.StoreConfig{
			BackendType: valid.StowBackend,
			Kind:        s.Stow.Kind,
			Config:      cfg,
		}
	}
	return valid.StoreConfig{BackendType: valid.S3Backend}
}

type Metrics struct {
	Statsd *Statsd `yaml:"statsd" json:"statsd"`
}

type Statsd struct {
	Port         string `yaml:"port" json:"port"`
	Host         string `yaml:"host" json:"host"`
	TagSeparator string `yaml:"tag_separator,omitempty" json:"tag_separator,omitempty"`
}

func (m Metrics) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Statsd),
	)
}

func (s Statsd) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.Required),
		validation.Field(&s.Port, validation.Required),
		validation.Field(&s.TagSeparator, validation.In(",", ";", "#")),
	)
}

func (m Metrics) ToValid() valid.Metrics {
	if m.Statsd == nil {
		return valid.Metrics{}
	}
	return valid.Metrics{
		Statsd: &valid.Statsd{
			Host:         m.Statsd.Host,
			Port:         m.Statsd.Port,
			TagSeparator: m.Statsd.TagSeparator,
		},
	}
}
