package cli

import "os"

// Config holds CLI settings shared by every command.
type Config struct {
	ServerAddr string // UDP relay address
	AdminAddr  string // gRPC admin address
	Name       string
	Output     string // text or json
}

// DefaultConfig reads defaults from the environment.
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnv("RELAY_SERVER", "127.0.0.1:8081"),
		AdminAddr:  getEnv("RELAY_ADMIN", "127.0.0.1:50051"),
		Name:       os.Getenv("RELAY_NAME"),
		Output:     getEnv("RELAY_OUTPUT", "text"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
