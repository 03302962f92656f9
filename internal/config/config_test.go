package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	d := Default()
	if c.Mode != ModeOffline || c.HTTPAddr != d.HTTPAddr || c.DBDriver != "sqlite" || c.TokenTTL != 8*time.Hour {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if !reflect.DeepEqual(c.CORSOrigins(), d.CORSOriginsOffline) {
		t.Errorf("CORSOrigins = %v", c.CORSOrigins())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VOXISCRIBE_MODE", "online")
	t.Setenv("VOXISCRIBE_AUTH_SECRET", "s3cret")
	t.Setenv("VOXISCRIBE_CORS_ORIGINS_ONLINE", "https://a.example, https://b.example")
	t.Setenv("VOXISCRIBE_REQUEST_TIMEOUT", "5s")

	v := viper.New()
	v.SetEnvPrefix("VOXISCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	c, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.Mode != ModeOnline || c.AuthSecret != "s3cret" || c.RequestTimeout != 5*time.Second {
		t.Errorf("env not applied: %+v", c)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(c.CORSOrigins(), want) {
		t.Errorf("CORSOrigins = %v, want %v", c.CORSOrigins(), want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "hybrid" }},
		{"minio without endpoint", func(c *Config) { c.BlobDriver = "minio" }},
		{"unknown blob driver", func(c *Config) { c.BlobDriver = "gcs" }},
		{"empty secret", func(c *Config) { c.AuthSecret = "" }},
		{"default secret online", func(c *Config) { c.Mode = ModeOnline }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
