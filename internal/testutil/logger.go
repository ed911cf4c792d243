package testutil

import (
	"io"
	"testing"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/stretchr/testify/require"

	"github.com/beka-birhanu/vinom-relay-server/config"
)

// NopLogger returns a logger that discards all output.
func NopLogger(t testing.TB) general_i.Logger {
	t.Helper()
	l, err := logger.New("TEST", config.ColorReset, io.Discard)
	require.NoError(t, err)
	return l
}
