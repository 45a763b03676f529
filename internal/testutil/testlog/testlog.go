// Package testlog routes test output through the test logging profile.
package testlog

import (
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/sbl8/opdispatch/internal/logging"
)

// Start configures the test profile once per process and marks the test in
// the log.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("start")
}
