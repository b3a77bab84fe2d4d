package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"skill-swap/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const seedYAML = `
skills:
  - id: 6f1c2b4e-8a8e-4d55-9a51-2f0b7a4c1e01
    owner_id: 0b0e8f4a-1d2c-4e5f-8a9b-0c1d2e3f4a5b
    name: Guitar
  - id: 6f1c2b4e-8a8e-4d55-9a51-2f0b7a4c1e02
    owner_id: 1c1f9a5b-2e3d-4f60-9bac-1d2e3f4a5b6c
    name: Spanish
`

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o600))

	return config.Config{
		App:      config.AppConfig{AppName: "skillswap-test", Environment: "test", HTTPPort: "0"},
		Database: config.DatabaseConfig{StoreDriver: config.StoreDriverMemory, SkillSeedFile: seed},
		JWT:      config.JWTConfig{AccessSecret: "secret", AccessExpiresIn: time.Minute},
		WS:       config.WSConfig{SendBuffer: 4},
	}
}

func TestBootstrap_MemoryStoreServesSwapFlow(t *testing.T) {
	a, cleanup, err := Bootstrap(context.Background(), memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	assert.Nil(t, a.Container.Relay, "relay is off unless Redis is enabled")

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	alice := uuid.MustParse("0b0e8f4a-1d2c-4e5f-8a9b-0c1d2e3f4a5b")
	bob := "1c1f9a5b-2e3d-4f60-9bac-1d2e3f4a5b6c"
	token, err := a.Container.Tokens.GenerateAccessToken(alice)
	require.NoError(t, err)

	body := `{"responder_id":"` + bob + `","offered_skill_id":"6f1c2b4e-8a8e-4d55-9a51-2f0b7a4c1e01","wanted_skill_id":"6f1c2b4e-8a8e-4d55-9a51-2f0b7a4c1e02"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/swaps", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = a.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var env struct {
		Data struct {
			Status          string `json:"status"`
			WantedSkillName string `json:"wanted_skill_name"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "pending", env.Data.Status)
	assert.Equal(t, "Spanish", env.Data.WantedSkillName)
}

func TestNewContainer_BadSeedFile(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Database.SkillSeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewContainer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9090")
	require.NoError(t, err)
	assert.Equal(t, ":9090", addr)

	_, err = ListenAddr(" ")
	assert.Error(t, err)
}
