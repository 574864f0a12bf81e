package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionOf(t *testing.T) {
	tests := map[string]string{
		"001_init.sql":                  "001",
		"migrations/002_add_groups.sql": "002",
		"/abs/path/010_push_tokens.sql": "010",
		"noprefix.sql":                  "noprefix.sql",
	}
	for in, want := range tests {
		assert.Equal(t, want, versionOf(in), in)
	}
}
