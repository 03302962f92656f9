package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	api "github.com/Shashikanth-R/voxiscribe-updated-template/internal/api/http"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/auth"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/cache"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/config"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/engine"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/proctoring"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/storage"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/transcribe"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	d := config.Default()
	f := cmd.Flags()
	addStoreFlags(cmd)
	f.String("mode", string(d.Mode), "online or offline (selects CORS origins)")
	f.String("addr", d.HTTPAddr, "listen address")
	f.String("public-url", "", "public base URL")
	f.String("blob-driver", d.BlobDriver, "video storage: fs or minio")
	f.String("blob-path", d.BlobBasePath, "root directory of the fs blob store")
	f.String("minio-endpoint", "", "MinIO endpoint host:port")
	f.String("minio-access-key", "", "MinIO access key")
	f.String("minio-secret-key", "", "MinIO secret key")
	f.String("minio-bucket", d.MinioBucket, "MinIO bucket")
	f.String("minio-region", d.MinioRegion, "MinIO region")
	f.Bool("minio-ssl", false, "use TLS for MinIO")
	f.String("redis-addr", "", "Redis address for the exam cache (in-process cache when empty)")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database")
	f.Duration("cache-ttl", d.CacheTTL, "exam cache TTL")
	f.String("auth-secret", d.AuthSecret, "HMAC secret for session tokens")
	f.Duration("token-ttl", d.TokenTTL, "session token lifetime")
	f.Bool("secure-cookies", false, "mark session cookies Secure")
	f.String("admin-user", d.AdminUser, "username of the seeded teacher account")
	f.String("admin-password", "", "password of the seeded teacher account")
	f.String("cors-origins-online", "", "comma separated origins allowed in online mode")
	f.String("cors-origins-offline", strings.Join(d.CORSOriginsOffline, ","), "comma separated origins allowed in offline mode")
	f.String("transcribe-url", "", "OpenAI compatible base URL (api.openai.com when empty)")
	f.String("transcribe-key", "", "transcription API key (transcription disabled when empty)")
	f.String("transcribe-model", d.TranscribeModel, "transcription model")
	f.Duration("request-timeout", d.RequestTimeout, "per request timeout")
	f.Duration("assembly-timeout", d.AssemblyTimeout, "timeout of one video assembly")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	d, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	users := user.NewStore(d)
	if err := seedTeacher(ctx, users, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return err
	}

	blobs, err := openBlobs(openCtx, cfg)
	if err != nil {
		return err
	}

	var exams cache.Exams = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(openCtx, cache.RedisConfig{
			Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB, TTL: cfg.CacheTTL,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		exams = rc
	}

	var tr transcribe.Transcriber = transcribe.Disabled{}
	if cfg.TranscribeKey != "" {
		tr = transcribe.NewWhisper(cfg.TranscribeURL, cfg.TranscribeKey, cfg.TranscribeModel, logger)
	}

	al := audit.NewLog(d, logger)
	proc := proctoring.NewService(d, blobs, al, proctoring.Options{
		Logger:          logger,
		AssemblyTimeout: cfg.AssemblyTimeout,
	})
	svc := engine.New(d, engine.Options{
		Logger: logger,
		Cache:  exams,
		Media:  proc,
		Audit:  al,
	})

	router := api.NewRouter(api.Deps{
		DB:             d,
		Users:          users,
		Auth:           auth.NewService(cfg.AuthSecret, cfg.TokenTTL),
		Engine:         svc,
		Proctoring:     proc,
		Transcriber:    tr,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins(),
		SecureCookies:  cfg.SecureCookies,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "blobs", cfg.BlobDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}
	// let running video assemblies finish before the database closes
	proc.Wait()
	return nil
}

func openBlobs(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "minio":
		s, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			Bucket:          cfg.MinioBucket,
			Region:          cfg.MinioRegion,
			UseSSL:          cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return s, nil
	default:
		s, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		return s, nil
	}
}

// seedTeacher creates the first teacher account so a fresh install can
// author exams. It does nothing once any teacher exists.
func seedTeacher(ctx context.Context, users *user.Store, username, password string) error {
	n, err := users.Count(ctx, user.RoleTeacher)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		slog.Warn("no teacher account exists; set --admin-password or VOXISCRIBE_ADMIN_PASSWORD to seed one")
		return nil
	}
	if _, err := users.Create(ctx, username, password, user.RoleTeacher); err != nil {
		return fmt.Errorf("seed teacher: %w", err)
	}
	slog.Info("seeded teacher account", "username", username)
	return nil
}
