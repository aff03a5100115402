package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDumpMasksSecrets(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	token := "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	require.NoError(t, persist.SaveSnapshot(ctx, storage, types.Session{
		Token:           token,
		User:            &types.User{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		IsAuthenticated: true,
	}))

	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageRedis, RedisPassword: "hunter22"}}

	var buf bytes.Buffer
	require.NoError(t, dump(ctx, &buf, storage, cfg))

	out := buf.String()
	assert.NotContains(t, out, token)
	assert.NotContains(t, out, "hunter22")
	assert.NotContains(t, out, "alice@example.com")

	var doc struct {
		Config   map[string]interface{} `yaml:"config"`
		Snapshot struct {
			Version int `yaml:"version"`
			Session struct {
				Token           string `yaml:"token"`
				IsAuthenticated bool   `yaml:"isAuthenticated"`
				User            struct {
					ID    string `yaml:"id"`
					Email string `yaml:"email"`
				} `yaml:"user"`
			} `yaml:"session"`
		} `yaml:"snapshot"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, persist.SnapshotVersion, doc.Snapshot.Version)
	assert.Equal(t, "eyJ...ure", doc.Snapshot.Session.Token)
	assert.True(t, doc.Snapshot.Session.IsAuthenticated)
	assert.Equal(t, "u1", doc.Snapshot.Session.User.ID)
	assert.Equal(t, "*****@example.com", doc.Snapshot.Session.User.Email)
	assert.NotNil(t, doc.Config)
}

func TestDumpEmptyStorage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dump(context.Background(), &buf, persist.NewMemoryStorage(), nil))
	assert.Equal(t, "snapshot: null\n", buf.String())
}
