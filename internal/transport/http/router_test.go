package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/auth/jwt"
	"dispomail/backend/internal/config"
	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/health"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/service"
	"dispomail/backend/internal/storage/memory"
	"dispomail/backend/internal/websocket"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := logger.NewDevelopmentLogger()
	tokens := jwt.NewManager("test-secret-key-for-unit-tests-0123456789", "dispomail-test", 15*time.Minute, 24*time.Hour)
	authSvc := auth.NewService(store, tokens, log)
	hub := websocket.NewHub(log, []string{"*"})

	cfg := &config.Config{
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		Inbound: config.InboundConfig{RatePerSecond: 1000, RateBurst: 1000},
	}

	router := NewRouter(RouterDeps{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Tokens:  tokens,
		Auth:    authSvc,
		Ingest:  service.NewIngestService(store, hub, log),
		Address: service.NewAddressService(store, log),
		Inbox:   service.NewInboxService(store, log),
		Domains: service.NewDomainService(store, log),
		Stats:   service.NewStatsService(store, log),
		Hub:     hub,
		Health:  health.NewHandler(store),
	})

	require.NoError(t, store.UpsertDomain(&domain.MailDomain{
		Name:     "tempmail.example",
		IsActive: true,
	}))
	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin 注册用户并返回访问令牌。
func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Tokens jwt.TokenPair `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Tokens.AccessToken
}

func TestAddressEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice@example.com")

	t.Run("未认证请求返回401", func(t *testing.T) {
		w := env.do(http.MethodPost, "/v1/addresses", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var addressID, addressStr string
	t.Run("分配地址", func(t *testing.T) {
		w := env.do(http.MethodPost, "/v1/addresses", token, gin.H{})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data domain.Address `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data.LocalPart, 8)
		assert.Equal(t, "tempmail.example", resp.Data.Domain)
		addressID = resp.Data.ID
		addressStr = resp.Data.Address
	})

	t.Run("free套餐第二次分配返回403", func(t *testing.T) {
		w := env.do(http.MethodPost, "/v1/addresses", token, gin.H{})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("投递到已分配地址后收件箱可见", func(t *testing.T) {
		w := env.do(http.MethodPost, "/v1/inbound", "", domain.InboundMessage{
			From:    "sender@remote.example",
			To:      addressStr,
			Subject: "hi",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodGet, "/v1/emails", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []domain.Email `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "hi", resp.Data[0].Subject)
	})

	t.Run("非属主不能回收地址", func(t *testing.T) {
		otherToken := env.registerAndLogin(t, "mallory@example.com")
		w := env.do(http.MethodDelete, "/v1/addresses/"+addressID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("属主回收地址后投递被拒", func(t *testing.T) {
		w := env.do(http.MethodDelete, "/v1/addresses/"+addressID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodPost, "/v1/inbound", "", domain.InboundMessage{
			From: "sender@remote.example",
			To:   addressStr,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice@example.com")

	t.Run("普通用户访问管理接口返回403", func(t *testing.T) {
		w := env.do(http.MethodGet, "/v1/admin/stats", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("管理员名单成员可以访问", func(t *testing.T) {
		user, err := env.store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		require.NoError(t, env.store.AddAdministrator(&domain.Administrator{
			UserID:    user.ID,
			GrantedBy: "bootstrap",
			CreatedAt: time.Now().UTC(),
		}))

		w := env.do(http.MethodGet, "/v1/admin/stats", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodPost, "/v1/admin/domains", token, gin.H{"name": "extra.example"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestPublicDomains(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/v1/public/domains", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"tempmail.example"}, resp.Data)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
