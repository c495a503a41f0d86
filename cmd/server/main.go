package main

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-photos/pkg/simplephotos/api"
	"github.com/tendant/simple-photos/pkg/simplephotos/config"
)

type Config struct {
	DB     DbConfig
	S3     S3Config
	Photos PhotosConfig
	Auth   AuthConfig

	Environment string `env:"ENVIRONMENT" env-default:"development"`
}

type DbConfig struct {
	URL    string `env:"DATABASE_URL" env-default:""`
	Schema string `env:"DB_SCHEMA" env-default:"photos"`
}

type S3Config struct {
	Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
}

type PhotosConfig struct {
	PresignTTLSeconds int `env:"PRESIGN_TTL_SECONDS" env-default:"604800"`
	MaxImageBytes     int `env:"MAX_IMAGE_BYTES" env-default:"5242880"`
}

type AuthConfig struct {
	JWTSecret    string `env:"JWT_SECRET" env-default:""`
	AuthDisabled bool   `env:"AUTH_DISABLED" env-default:"false"`
	TestMode     bool   `env:"BATCH_TEST_MODE" env-default:"false"`
}

func serverConfig(cfg Config) (*config.ServerConfig, error) {
	return config.Load(func(c *config.ServerConfig) error {
		c.Environment = cfg.Environment

		if cfg.DB.URL != "" {
			c.DatabaseType = "postgres"
			c.DatabaseURL = cfg.DB.URL
			c.DBSchema = cfg.DB.Schema
		}

		if cfg.S3.Bucket != "" {
			c.StorageType = "s3"
			c.Bucket = cfg.S3.Bucket
			c.Region = cfg.S3.Region
			c.Endpoint = cfg.S3.Endpoint
			c.AccessKeyID = cfg.S3.AccessKeyID
			c.SecretAccessKey = cfg.S3.SecretAccessKey
			c.UsePathStyle = cfg.S3.UsePathStyle
		}

		c.PresignTTLSeconds = cfg.Photos.PresignTTLSeconds
		c.MaxImageBytes = cfg.Photos.MaxImageBytes
		c.JWTSecret = cfg.Auth.JWTSecret
		c.AuthDisabled = cfg.Auth.AuthDisabled
		return nil
	})
}

func main() {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverCfg, err := serverConfig(cfg)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	if serverCfg.DatabaseType == "postgres" {
		if err := config.PingPostgres(serverCfg.DatabaseURL, serverCfg.DBSchema); err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
	}

	svc, err := serverCfg.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	var verifier api.Verifier
	if serverCfg.AuthDisabled {
		slog.Warn("Auth is disabled, trusting X-User-ID header")
		verifier = api.HeaderVerifier{}
	} else {
		verifier = api.NewJWTVerifier(serverCfg.JWTSecret)
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	photoHandler := api.NewPhotoHandler(svc)
	nicknameHandler := api.NewNicknameHandler(svc)
	batchHandler := api.NewBatchHandler(svc)
	batchHandler.TestModeAllowed = cfg.Auth.TestMode

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(api.RequireAuth(verifier))
			r.Mount("/users", photoHandler.Routes())
			r.Mount("/batch", batchHandler.Routes())
		})
		r.Mount("/nicknames", nicknameHandler.Routes())
	})

	slog.Info("Simple Photos Server starting",
		"env", serverCfg.Environment,
		"db", serverCfg.DatabaseType,
		"storage", serverCfg.StorageType)

	server.Run()
}
