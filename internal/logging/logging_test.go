package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Info().Msg("hidden")
	Warn().Str("role", "patient").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"role":"patient"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Ctx(context.Background()).Debug().Msg("global")
	assert.Contains(t, buf.String(), "global")

	var scoped bytes.Buffer
	l := Logger().Output(&scoped).With().Str("request_id", "abc").Logger()
	ctx := WithContext(context.Background(), l)
	Ctx(ctx).Info().Msg("scoped")
	assert.Contains(t, scoped.String(), `"request_id":"abc"`)
}
