package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigHelpers(t *testing.T) {
	cfg := Config{
		"prefix":  "  !up ",
		"blank":   " ",
		"count":   3,
		"yamlnum": float64(7),
		"jsonnum": json.Number("9"),
		"strnum":  "11",
		"neg":     -1,
		"list":    []any{"a", " ", 2, "b"},
		"single":  "solo",
	}

	assert.Equal(t, "!up", String(cfg, "prefix", "x"))
	assert.Equal(t, "x", String(cfg, "blank", "x"))
	assert.Equal(t, "x", String(cfg, "count", "x"))
	assert.Equal(t, "x", String(nil, "prefix", "x"))

	assert.Equal(t, 3, Int(cfg, "count", 1))
	assert.Equal(t, 7, Int(cfg, "yamlnum", 1))
	assert.Equal(t, 9, Int(cfg, "jsonnum", 1))
	assert.Equal(t, 11, Int(cfg, "strnum", 1))
	assert.Equal(t, 1, Int(cfg, "neg", 1))
	assert.Equal(t, 1, Int(cfg, "missing", 1))

	assert.Equal(t, []string{"a", "b"}, Strings(cfg, "list"))
	assert.Equal(t, []string{"solo"}, Strings(cfg, "single"))
	assert.Nil(t, Strings(cfg, "missing"))
}
