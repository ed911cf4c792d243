package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"LEVEL", "HOST_IP", "UDP_PORT", "UDP_BUFFER_SIZE", "QUEUE_SIZE", "GRPC_PORT", "HTTP_PORT"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Level)
	assert.Equal(t, 8081, c.UdpPort)
	assert.Equal(t, 1024, c.UDPBufferSize)
	assert.Equal(t, 32, c.QueueSize)
	assert.Equal(t, 50051, c.GrpcPort)
	assert.Equal(t, 8082, c.HttpPort)
	assert.Empty(t, c.HostIP)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEVEL", "2")
	t.Setenv("HOST_IP", "127.0.0.1")
	t.Setenv("UDP_PORT", "9000")
	t.Setenv("HTTP_PORT", "0")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, "127.0.0.1", c.HostIP)
	assert.Equal(t, 9000, c.UdpPort)
	assert.Equal(t, 0, c.HttpPort)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"level out of range", "LEVEL", "4"},
		{"level not int", "LEVEL", "hard"},
		{"port not int", "UDP_PORT", "eighty"},
		{"zero buffer", "UDP_BUFFER_SIZE", "0"},
		{"negative queue", "QUEUE_SIZE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestPromptLevel(t *testing.T) {
	var out bytes.Buffer
	level, err := PromptLevel(strings.NewReader("3\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, level)
	assert.Contains(t, out.String(), "game level")

	level, err = PromptLevel(strings.NewReader(" 1 "), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, level)

	_, err = PromptLevel(strings.NewReader("0\n"), &out)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = PromptLevel(strings.NewReader("abc\n"), &out)
	assert.ErrorIs(t, err, ErrInvalidInt)

	_, err = PromptLevel(strings.NewReader(""), &out)
	assert.Error(t, err)
}
