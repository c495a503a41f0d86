// Package config wires repositories, object stores and the photo service
// from declarative server configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-photos/pkg/simplephotos"
	memoryrepo "github.com/tendant/simple-photos/pkg/simplephotos/repo/memory"
	repopg "github.com/tendant/simple-photos/pkg/simplephotos/repo/postgres"
	memorystorage "github.com/tendant/simple-photos/pkg/simplephotos/storage/memory"
	s3storage "github.com/tendant/simple-photos/pkg/simplephotos/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "8080",
		Environment:       "development",
		DatabaseType:      "memory",
		DBSchema:          "photos",
		StorageType:       "memory",
		Bucket:            "photos",
		Region:            "us-east-1",
		PresignTTLSeconds: int(simplephotos.DefaultPresignTTL / time.Second),
		MaxImageBytes:     simplephotos.DefaultMaxImageBytes,
	}
}

// ServerConfig represents server configuration for the simple-photos service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: photos)

	// Object storage configuration
	StorageType     string // "memory", "s3"
	Bucket          string
	Region          string
	Endpoint        string // Optional custom endpoint for S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	// Photo service options
	PresignTTLSeconds int
	MaxImageBytes     int

	// Auth
	JWTSecret    string
	AuthDisabled bool // accept the caller id from a plain header, testing only
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.Bucket == "" {
		return errors.New("bucket is required when using s3")
	}

	if c.PresignTTLSeconds <= 0 {
		return errors.New("presign ttl must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("max image bytes must be positive")
	}

	if !c.AuthDisabled && c.JWTSecret == "" {
		return errors.New("jwt_secret is required unless auth is disabled")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (simplephotos.Service, error) {
	repo, err := c.BuildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildObjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build object store: %w", err)
	}

	return simplephotos.New(
		simplephotos.WithRepository(repo),
		simplephotos.WithObjectStore(store),
		simplephotos.WithPresignTTL(time.Duration(c.PresignTTLSeconds)*time.Second),
		simplephotos.WithMaxImageBytes(c.MaxImageBytes),
	)
}

// BuildRepository creates a UserRepository based on the configuration
func (c *ServerConfig) BuildRepository() (simplephotos.UserRepository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildObjectStore creates an ObjectStore based on the configuration
func (c *ServerConfig) BuildObjectStore() (simplephotos.ObjectStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(c.Bucket), nil
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.Region,
			Bucket:          c.Bucket,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			Endpoint:        c.Endpoint,
			UsePathStyle:    c.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

// PingPostgres verifies connectivity to Postgres and optionally sets
// search_path for the session. It fails if the schema (when provided) does
// not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
