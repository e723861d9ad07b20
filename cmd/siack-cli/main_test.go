package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dakgu/siack/clientcli"
)

func resetFlags(t *testing.T) {
	t.Helper()
	cfgFile, profile, endpoint, token = "", "", "", ""
	t.Setenv("SIACK_ENDPOINT", "")
	t.Setenv("SIACK_TOKEN", "")
	t.Setenv("SIACK_PROFILE", "")
	t.Setenv("SIACK_CLI_CONFIG", "")
	t.Cleanup(func() { cfgFile, profile, endpoint, token = "", "", "", "" })
}

func writeProfiles(t *testing.T, profiles ...clientcli.Profile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cf := &clientcli.ConfigFile{Profiles: profiles}
	require.NoError(t, cf.Save(path))
	return path
}

func TestBuildConfig_Precedence(t *testing.T) {
	resetFlags(t)
	cfgFile = writeProfiles(t,
		clientcli.Profile{Name: "local", Endpoint: "http://localhost:8080", Token: "local-token", Default: true},
		clientcli.Profile{Name: "prod", Endpoint: "https://img.example.com", Token: "prod-token"},
	)

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Endpoint)
	assert.Equal(t, "local-token", cfg.Token)

	profile = "prod"
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com", cfg.Endpoint)

	t.Setenv("SIACK_TOKEN", "env-token")
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Token)

	token = "flag-token"
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "flag-token", cfg.Token)
}

func TestBuildConfig_MissingProfile(t *testing.T) {
	resetFlags(t)
	cfgFile = writeProfiles(t, clientcli.Profile{Name: "local", Endpoint: "http://localhost:8080"})
	profile = "nope"

	_, err := buildConfig()
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
}

func TestBuildConfig_NoConfigFile(t *testing.T) {
	resetFlags(t)
	t.Setenv("SIACK_CLI_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SIACK_ENDPOINT", "http://gateway:8080")

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://gateway:8080", cfg.Endpoint)
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://localhost:8080", false},
		{"https://img.example.com", false},
		{"", true},
		{"ftp://example.com", true},
		{"localhost:8080", true},
		{"http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validateEndpoint(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
