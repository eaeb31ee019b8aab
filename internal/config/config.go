// Package config reads the lt client configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Transport names accepted by LOTS_TRANSPORT.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

type Config struct {
	APIURL    string // LOTS_API_URL (default "http://localhost:8080")
	GRPCAddr  string // LOTS_GRPC_ADDR (default "localhost:9090")
	Transport string // LOTS_TRANSPORT ("http" or "grpc", default "http")
	Token     string // LOTS_TOKEN (optional, empty = anonymous)
	UserID    int64  // LOTS_USER_ID (optional, 0 = no user)
	UserLogin string // LOTS_USER_LOGIN (optional)

	PageSize    int           // LOTS_PAGE_SIZE (default 20)
	RequestRate float64       // LOTS_REQUEST_RATE (requests/second, default 10; 0 = unlimited)
	PromoTTL    time.Duration // LOTS_PROMO_TTL (default 5m)

	NATSURL     string // LOTS_NATS_URL (optional, empty = no live patches)
	DatabaseURL string // LOTS_DATABASE_URL (optional, empty = no search history)

	// Attachment uploads
	S3Bucket   string // LOTS_S3_BUCKET (enables uploads when set)
	S3Endpoint string // LOTS_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region   string // LOTS_S3_REGION (default "us-east-1")
	S3Prefix   string // LOTS_S3_PREFIX (default "uploads/")
}

func Load() (*Config, error) {
	c := &Config{
		APIURL:      envOrDefault("LOTS_API_URL", "http://localhost:8080"),
		GRPCAddr:    envOrDefault("LOTS_GRPC_ADDR", "localhost:9090"),
		Transport:   envOrDefault("LOTS_TRANSPORT", TransportHTTP),
		Token:       os.Getenv("LOTS_TOKEN"),
		UserLogin:   os.Getenv("LOTS_USER_LOGIN"),
		NATSURL:     os.Getenv("LOTS_NATS_URL"),
		DatabaseURL: os.Getenv("LOTS_DATABASE_URL"),
		S3Bucket:    os.Getenv("LOTS_S3_BUCKET"),
		S3Endpoint:  os.Getenv("LOTS_S3_ENDPOINT"),
		S3Region:    envOrDefault("LOTS_S3_REGION", "us-east-1"),
		S3Prefix:    envOrDefault("LOTS_S3_PREFIX", "uploads/"),
	}

	switch c.Transport {
	case TransportHTTP, TransportGRPC:
	default:
		return nil, fmt.Errorf("LOTS_TRANSPORT: unknown transport %q", c.Transport)
	}

	if s := os.Getenv("LOTS_USER_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("LOTS_USER_ID: %w", err)
		}
		c.UserID = id
	}

	size, err := strconv.Atoi(envOrDefault("LOTS_PAGE_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("LOTS_PAGE_SIZE: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("LOTS_PAGE_SIZE: must be positive, got %d", size)
	}
	c.PageSize = size

	rate, err := strconv.ParseFloat(envOrDefault("LOTS_REQUEST_RATE", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("LOTS_REQUEST_RATE: %w", err)
	}
	c.RequestRate = rate

	ttl, err := time.ParseDuration(envOrDefault("LOTS_PROMO_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("LOTS_PROMO_TTL: %w", err)
	}
	c.PromoTTL = ttl

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
