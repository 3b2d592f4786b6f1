package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerChainsLevelMethods(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	defer Disable()

	Logger().Info().Str("component", "gateway").Msg("started")
	Logger().Warn().Msg("capability fault")
	Logger().Error().Msg("trail write failed")

	out := buf.String()
	for _, want := range []string{"started", "capability fault", "trail write failed", "gateway"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&bytes.Buffer{}))
	defer Disable()

	SetOutput(&buf)
	Logger().Info().Msg("rerouted")
	if !strings.Contains(buf.String(), "rerouted") {
		t.Errorf("output not rerouted: %q", buf.String())
	}
}

func TestDisable(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	Disable()

	Logger().Error().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}
