package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fdg312/diet-planner/internal/config"
)

func TestValidateProductionConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"local defaults", config.Config{Env: "local"}, false},
		{"prod without storage", config.Config{Env: "production"}, true},
		{"prod with sqlite", config.Config{Env: "production", SQLitePath: "/data/diet.db"}, false},
		{
			"prod with dev secret",
			config.Config{Env: "production", DatabaseURL: "postgres://x", AuthRequired: true, JWTSecret: config.DevJWTSecret},
			true,
		},
		{
			"prod with dev auth",
			config.Config{Env: "production", SQLitePath: "/data/diet.db", AuthMode: config.AuthModeDev, JWTSecret: "s3cr3t"},
			true,
		},
		{
			"prod with dev secret and auth optional",
			config.Config{Env: "production", SQLitePath: "/data/diet.db", AuthMode: config.AuthModeNone, JWTSecret: config.DevJWTSecret},
			true,
		},
		{
			"staging dev auth with dev secret",
			config.Config{Env: "staging", SQLitePath: "/data/diet.db", AuthMode: config.AuthModeDev, JWTSecret: config.DevJWTSecret},
			true,
		},
		{
			"local dev auth",
			config.Config{Env: "local", AuthMode: config.AuthModeDev, JWTSecret: config.DevJWTSecret},
			false,
		},
		{
			"forced s3 incomplete",
			config.Config{Env: "local", Blob: config.BlobConfig{Mode: config.BlobModeS3}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProductionConfig(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecretStatus(t *testing.T) {
	assert.Equal(t, "not set", secretStatus(" ", config.DevJWTSecret))
	assert.Equal(t, "set (insecure dev default)", secretStatus(config.DevJWTSecret, config.DevJWTSecret))
	assert.Equal(t, "set (custom)", secretStatus("s3cr3t", config.DevJWTSecret))
}
