package config

import (
	"encoding/base64"
	"fmt"
)

const defaultSocketPath = "/api/socket"

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SocketPath     string
	SigningKey     []byte
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret, socketPath string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if socketPath == "" {
		socketPath = defaultSocketPath
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		DatabaseDSN:    databaseDSN,
		ServerAddr:     serverAddr,
		SocketPath:     socketPath,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
	}, nil
}
