package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds settings for the relay server runtime.
type ServerConfig struct {
	ListenAddr string
	Database   DatabaseConfig

	// ReadTimeout bounds how long a connection may stay silent (pongs count)
	// before it is considered dead. WriteTimeout bounds every outbound frame.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxMessageBytes caps the size of a single inbound frame.
	MaxMessageBytes int64

	// SendQueueSize is the per-connection outbound buffer. When a recipient's
	// queue is full the message is dropped for that recipient only.
	SendQueueSize int

	// EchoSelf controls whether a sender receives its own broadcast back.
	EchoSelf bool
}

// ClientConfig holds settings for the terminal client.
type ClientConfig struct {
	ServerURL string
	Room      string
	Username  string
}

// DatabaseConfig captures storage configuration.
type DatabaseConfig struct {
	Path string
}

// PingInterval derives the keepalive period from the read timeout. It must be
// shorter than ReadTimeout or the peer times out between pings.
func (c ServerConfig) PingInterval() time.Duration {
	return c.ReadTimeout * 9 / 10
}

// LoadServerConfig builds the server configuration from environment variables
// with sensible defaults.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:      envOrDefault("ROOMCAST_LISTEN_ADDR", ":8080"),
		Database:        DatabaseConfig{Path: envOrDefault("ROOMCAST_DB_PATH", "roomcast.db")},
		ReadTimeout:     envDuration("ROOMCAST_READ_TIMEOUT", 60*time.Second),
		WriteTimeout:    envDuration("ROOMCAST_WRITE_TIMEOUT", 10*time.Second),
		MaxMessageBytes: int64(envInt("ROOMCAST_MAX_MESSAGE_BYTES", 4096)),
		SendQueueSize:   envInt("ROOMCAST_SEND_QUEUE", 64),
		EchoSelf:        envBool("ROOMCAST_ECHO_SELF", false),
	}
}

// LoadClientConfig builds the client configuration from environment variables.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		ServerURL: envOrDefault("ROOMCAST_SERVER_URL", "ws://localhost:8080/ws"),
		Room:      envOrDefault("ROOMCAST_ROOM", ""),
		Username:  envOrDefault("ROOMCAST_USERNAME", "anonymous"),
	}
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(env); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(env); err == nil {
			return parsed
		}
	}
	return def
}
