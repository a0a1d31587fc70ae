package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/auth"
	"github.com/sagarc03/storefront/config"
	"github.com/sagarc03/storefront/database"
	"github.com/sagarc03/storefront/filesystem"
	"github.com/sagarc03/storefront/s3store"
)

// app holds the adapters and services every command builds from config.
type app struct {
	cfg      *config.Config
	db       database.Database
	root     *os.Root
	local    *filesystem.Store
	remote   storefront.AssetStore
	cleaner  *storefront.Cleaner
	tokens   *auth.TokenManager
	admins   *storefront.AdminService
	products *storefront.ProductService
}

// openDatabase connects, migrates when configured, and checks the schema.
func openDatabase(ctx context.Context, cfg database.Config) (database.Database, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Type)
	return db, nil
}

func openUploadsRoot(path string) (*os.Root, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("open uploads root: %w", err)
	}
	return root, nil
}

func newRemoteStore(ctx context.Context, cfg config.RemoteStorageConfig) (storefront.AssetStore, error) {
	if !cfg.Enabled {
		slog.Info("remote storage disabled, uploads go to the local directory")
		return nil, nil
	}

	s3cfg := s3store.DefaultConfig()
	s3cfg.Bucket = cfg.Bucket
	s3cfg.Region = cfg.Region
	s3cfg.Endpoint = cfg.Endpoint
	s3cfg.UsePathStyle = cfg.UsePathStyle
	s3cfg.PublicURL = cfg.PublicURL
	s3cfg.Prefix = cfg.Prefix
	s3cfg.MaxDimension = cfg.MaxDimension

	store, err := s3store.New(ctx, s3cfg)
	if err != nil {
		return nil, fmt.Errorf("create remote store: %w", err)
	}
	slog.Info("remote storage enabled", "bucket", cfg.Bucket, "region", cfg.Region)
	return store, nil
}

func jwtSecret(cfg config.AuthConfig) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	slog.Warn("auth.jwt_secret is not set, tokens will not survive a restart")
	return hex.EncodeToString(buf), nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	var err error
	if a.db, err = openDatabase(ctx, cfg.Database); err != nil {
		return nil, err
	}

	if a.root, err = openUploadsRoot(cfg.Storage.Local.Path); err != nil {
		return nil, err
	}
	a.local = filesystem.NewStore(a.root, cfg.Server.PublicURL+"/uploads")

	if a.remote, err = newRemoteStore(ctx, cfg.Storage.Remote); err != nil {
		return nil, err
	}

	a.cleaner = storefront.NewCleaner(storefront.CleanerConfig{
		Timeout:     time.Duration(cfg.Service.CleanupTimeout) * time.Second,
		Concurrency: cfg.Service.CleanupConcurrency,
	}, a.remote, a.local)

	pipeline, err := storefront.NewPipeline(a.remote, a.local, a.cleaner)
	if err != nil {
		return nil, err
	}

	secret, err := jwtSecret(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if a.tokens, err = auth.NewTokenManager(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL); err != nil {
		return nil, err
	}

	a.admins, err = storefront.NewAdminService(a.db.AdminRepo(), pipeline, a.cleaner, auth.NewHasher(auth.DefaultParams), a.tokens,
		storefront.AdminServiceConfig{PictureMaxSize: cfg.Upload.PictureMaxSize})
	if err != nil {
		return nil, err
	}

	a.products, err = storefront.NewProductService(a.db.ProductRepo(), pipeline, a.cleaner,
		storefront.ProductServiceConfig{ImageMaxSize: cfg.Upload.ProductMaxSize, MaxAdditional: cfg.Upload.MaxAdditional})
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func (a *app) close() {
	if a.root != nil {
		_ = a.root.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func appFromCommand(ctx context.Context) (*app, error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Env == "prod" && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required in prod")
	}
	return newApp(ctx, cfg)
}
