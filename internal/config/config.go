// Package config holds the server settings. Values come from flags,
// VOXISCRIBE_* environment variables and an optional voxiscribe.{yaml,toml,json}
// file, resolved by viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string // sqlite|postgres
	DBDSN    string

	BlobDriver   string // fs|minio
	BlobBasePath string // fs root

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	RedisAddr     string // empty disables the shared exam cache
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AuthSecret    string
	TokenTTL      time.Duration
	SecureCookies bool

	AdminUser     string
	AdminPassword string // seeds the first teacher account when no teacher exists

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	TranscribeURL   string
	TranscribeKey   string // empty disables transcription
	TranscribeModel string

	RequestTimeout  time.Duration
	AssemblyTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Default is the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "sqlite",
		BlobDriver:         "fs",
		BlobBasePath:       "./data",
		MinioBucket:        "voxiscribe",
		MinioRegion:        "us-east-1",
		CacheTTL:           time.Hour,
		AuthSecret:         "dev-secret-change-me",
		TokenTTL:           8 * time.Hour,
		AdminUser:          "admin",
		CORSOriginsOnline:  []string{},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:5173"},
		TranscribeModel:    "whisper-1",
		RequestTimeout:     30 * time.Second,
		AssemblyTimeout:    5 * time.Minute,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// SetDefaults registers Default() under the keys Load reads.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("mode", string(d.Mode))
	v.SetDefault("addr", d.HTTPAddr)
	v.SetDefault("db-driver", d.DBDriver)
	v.SetDefault("blob-driver", d.BlobDriver)
	v.SetDefault("blob-path", d.BlobBasePath)
	v.SetDefault("minio-bucket", d.MinioBucket)
	v.SetDefault("minio-region", d.MinioRegion)
	v.SetDefault("cache-ttl", d.CacheTTL)
	v.SetDefault("auth-secret", d.AuthSecret)
	v.SetDefault("token-ttl", d.TokenTTL)
	v.SetDefault("admin-user", d.AdminUser)
	v.SetDefault("cors-origins-offline", strings.Join(d.CORSOriginsOffline, ","))
	v.SetDefault("transcribe-model", d.TranscribeModel)
	v.SetDefault("request-timeout", d.RequestTimeout)
	v.SetDefault("assembly-timeout", d.AssemblyTimeout)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
}

// Load reads every setting from v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	c := Config{
		Mode:      Mode(strings.ToLower(v.GetString("mode"))),
		HTTPAddr:  v.GetString("addr"),
		PublicURL: v.GetString("public-url"),

		DBDriver: v.GetString("db-driver"),
		DBDSN:    v.GetString("db-dsn"),

		BlobDriver:   v.GetString("blob-driver"),
		BlobBasePath: v.GetString("blob-path"),

		MinioEndpoint:  v.GetString("minio-endpoint"),
		MinioAccessKey: v.GetString("minio-access-key"),
		MinioSecretKey: v.GetString("minio-secret-key"),
		MinioBucket:    v.GetString("minio-bucket"),
		MinioRegion:    v.GetString("minio-region"),
		MinioUseSSL:    v.GetBool("minio-ssl"),

		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		CacheTTL:      v.GetDuration("cache-ttl"),

		AuthSecret:    v.GetString("auth-secret"),
		TokenTTL:      v.GetDuration("token-ttl"),
		SecureCookies: v.GetBool("secure-cookies"),

		AdminUser:     v.GetString("admin-user"),
		AdminPassword: v.GetString("admin-password"),

		CORSOriginsOnline:  csv(v.GetString("cors-origins-online")),
		CORSOriginsOffline: csv(v.GetString("cors-origins-offline")),

		TranscribeURL:   v.GetString("transcribe-url"),
		TranscribeKey:   v.GetString("transcribe-key"),
		TranscribeModel: v.GetString("transcribe-model"),

		RequestTimeout:  v.GetDuration("request-timeout"),
		AssemblyTimeout: v.GetDuration("assembly-timeout"),

		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOnline, ModeOffline:
	default:
		return fmt.Errorf("config: mode must be online or offline, got %q", c.Mode)
	}
	switch c.BlobDriver {
	case "fs":
	case "minio":
		if c.MinioEndpoint == "" {
			return fmt.Errorf("config: blob-driver minio needs minio-endpoint")
		}
	default:
		return fmt.Errorf("config: unknown blob-driver %q", c.BlobDriver)
	}
	if c.AuthSecret == "" {
		return fmt.Errorf("config: auth-secret must not be empty")
	}
	if c.Mode == ModeOnline && c.AuthSecret == Default().AuthSecret {
		return fmt.Errorf("config: set auth-secret in online mode")
	}
	return nil
}

// CORSOrigins returns the allowed origins for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
