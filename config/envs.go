package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Level bounds accepted at startup.
const (
	MinLevel = 1
	MaxLevel = 3
)

var (
	ErrInvalidLevel = fmt.Errorf("level must be between %d and %d", MinLevel, MaxLevel)
	ErrInvalidInt   = errors.New("must be an integer")
)

// Config holds the application's configuration values.
type Config struct {
	Level  int    // Game level echoed to every client, 0 when it must be prompted for
	HostIP string // Host IP the UDP socket binds to, empty for the detected local address

	UdpPort       int // Port for the UDP socket
	UDPBufferSize int // Size of the buffer for incoming UDP packets (in bytes)
	QueueSize     int // Capacity of the ingress and outbound queues

	GrpcPort int // Port for the admin GRPC server
	HttpPort int // Port for the event feed, 0 disables it
}

// Load reads the configuration from the environment.
// A .env file is loaded first if available; variables already set win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	var c Config
	var err error

	if c.Level, err = getEnvAsInt("LEVEL", 0); err != nil {
		return Config{}, err
	}
	if c.Level != 0 {
		if err := ValidateLevel(c.Level); err != nil {
			return Config{}, err
		}
	}
	c.HostIP = os.Getenv("HOST_IP")

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"UDP_PORT", 8081, &c.UdpPort},
		{"UDP_BUFFER_SIZE", 1024, &c.UDPBufferSize},
		{"QUEUE_SIZE", 32, &c.QueueSize},
		{"GRPC_PORT", 50051, &c.GrpcPort},
		{"HTTP_PORT", 8082, &c.HttpPort},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvAsInt(v.key, v.def); err != nil {
			return Config{}, err
		}
	}

	if c.UDPBufferSize <= 0 {
		return Config{}, fmt.Errorf("UDP_BUFFER_SIZE must be positive, got %d", c.UDPBufferSize)
	}
	if c.QueueSize <= 0 {
		return Config{}, fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	return c, nil
}

// ValidateLevel reports whether level is in the accepted range.
func ValidateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return ErrInvalidLevel
	}
	return nil
}

// PromptLevel asks for the game level on w and reads one line from r.
func PromptLevel(r io.Reader, w io.Writer) (int, error) {
	fmt.Fprint(w, "Please enter the game level: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return 0, fmt.Errorf("reading level: %w", err)
	}

	level, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("level %w", ErrInvalidInt)
	}
	if err := ValidateLevel(level); err != nil {
		return 0, err
	}
	return level, nil
}

// getEnvAsInt retrieves an environment variable as an integer, or def when unset.
func getEnvAsInt(key string, def int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return def, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("environment variable %s %w: %v", key, ErrInvalidInt, err)
	}
	return value, nil
}
