package models_test

import (
	"testing"

	"github.com/runatlantis/packagebuilder/server/models"
	"github.com/stretchr/testify/assert"
)

func TestObjectRef_Name(t *testing.T) {
	cases := []struct {
		key      string
		expected string
	}{
		{"src/123/source.zip", "source.zip"},
		{"source.zip", "source.zip"},
		{"src/123/", "123"},
	}

	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			assert.Equal(t, c.expected, models.NewObjectRef("bucket", c.key).Name())
		})
	}
}

func TestObjectRef_String(t *testing.T) {
	assert.Equal(t, "in-bucket/src/123/source.zip", models.NewObjectRef("in-bucket", "src/123/source.zip").String())
}
