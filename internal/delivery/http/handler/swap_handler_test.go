package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skill-swap/internal/delivery/http/handler"
	"skill-swap/internal/delivery/http/middleware"
	"skill-swap/internal/delivery/http/routes"
	"skill-swap/internal/domain/skill"
	"skill-swap/internal/pkg/jwt"
	"skill-swap/internal/repository"
	"skill-swap/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type swapBody struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type apiFixture struct {
	app    *fiber.App
	tokens *jwt.HMACService

	alice, bob, carol uuid.UUID
	guitar, spanish   skill.Skill
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, uuid.UUID, string, any) {}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		tokens: jwt.NewHMACService("test-secret", time.Minute),
		alice:  uuid.New(),
		bob:    uuid.New(),
		carol:  uuid.New(),
	}
	f.guitar = skill.Skill{ID: uuid.New(), OwnerID: f.alice, Name: "Guitar", Type: skill.TypeOffered, Approved: true}
	f.spanish = skill.Skill{ID: uuid.New(), OwnerID: f.bob, Name: "Spanish", Type: skill.TypeOffered, Approved: true}

	uc := usecase.NewSwapLifecycle(
		repository.NewMemorySwapRepository(),
		repository.NewMemorySkillDirectory(f.guitar, f.spanish),
		nopDispatcher{},
		zap.NewNop(),
	)

	f.app = fiber.New()
	f.app.Use(middleware.NewErrorMiddleware(zap.NewNop()).Middleware())
	routes.NewRegistry(
		handler.NewHealthHandler(nil),
		handler.NewSwapHandler(uc),
		nil,
		middleware.NewAuthMiddleware(f.tokens),
	).Register(f.app)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, as uuid.UUID, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != uuid.Nil {
		token, err := f.tokens.GenerateAccessToken(as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f *apiFixture) propose(t *testing.T) swapBody {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/v1/swaps", f.alice,
		`{"responder_id":"`+f.bob.String()+`","offered_skill_id":"`+f.guitar.ID.String()+`","wanted_skill_id":"`+f.spanish.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, status)

	var s swapBody
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func TestSwapAPI_RequiresAuth(t *testing.T) {
	f := newAPI(t)
	status, env := f.do(t, http.MethodGet, "/api/v1/swaps", uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, http.StatusUnauthorized, env.Status)
}

func TestSwapAPI_ProposeAndAccept(t *testing.T) {
	f := newAPI(t)
	created := f.propose(t)
	assert.Equal(t, "pending", created.Status)

	status, env := f.do(t, http.MethodPut, "/api/v1/swaps/"+created.ID.String()+"/accept", f.bob, "")
	require.Equal(t, http.StatusOK, status)
	var accepted swapBody
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	assert.Equal(t, "accepted", accepted.Status)

	status, env = f.do(t, http.MethodPut, "/api/v1/swaps/"+created.ID.String()+"/cancel", f.alice, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Swap request has already been resolved", env.Message)
}

func TestSwapAPI_ErrorMapping(t *testing.T) {
	f := newAPI(t)
	created := f.propose(t)
	id := created.ID.String()

	cases := []struct {
		name    string
		method  string
		path    string
		as      uuid.UUID
		body    string
		status  int
		message string
	}{
		{
			name: "self swap", method: http.MethodPost, path: "/api/v1/swaps", as: f.alice,
			body:   `{"responder_id":"` + f.alice.String() + `","offered_skill_id":"` + f.guitar.ID.String() + `","wanted_skill_id":"` + f.guitar.ID.String() + `"}`,
			status: http.StatusBadRequest, message: "Cannot create swap request with yourself",
		},
		{
			name: "bad ownership", method: http.MethodPost, path: "/api/v1/swaps", as: f.alice,
			body:   `{"responder_id":"` + f.bob.String() + `","offered_skill_id":"` + f.spanish.ID.String() + `","wanted_skill_id":"` + f.spanish.ID.String() + `"}`,
			status: http.StatusUnprocessableEntity, message: "Skill not found, not approved or not owned by the expected user",
		},
		{
			name: "requester cannot accept", method: http.MethodPut, path: "/api/v1/swaps/" + id + "/accept", as: f.alice,
			status: http.StatusForbidden, message: "Not allowed to perform this action on the swap",
		},
		{
			name: "outsider cannot reject", method: http.MethodPut, path: "/api/v1/swaps/" + id + "/reject", as: f.carol,
			status: http.StatusForbidden, message: "Not allowed to perform this action on the swap",
		},
		{
			name: "outsider cannot read", method: http.MethodGet, path: "/api/v1/swaps/" + id, as: f.carol,
			status: http.StatusNotFound,
		},
		{
			name: "unknown swap", method: http.MethodPut, path: "/api/v1/swaps/" + uuid.NewString() + "/cancel", as: f.alice,
			status: http.StatusNotFound,
		},
		{
			name: "malformed id", method: http.MethodGet, path: "/api/v1/swaps/not-a-uuid", as: f.alice,
			status: http.StatusBadRequest,
		},
		{
			name: "unknown status filter", method: http.MethodGet, path: "/api/v1/swaps?status=archived", as: f.alice,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := f.do(t, tc.method, tc.path, tc.as, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.status, env.Status)
			if tc.message != "" {
				assert.Equal(t, tc.message, env.Message)
			}
		})
	}
}

func TestSwapAPI_DuplicateIsConflict(t *testing.T) {
	f := newAPI(t)
	f.propose(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/swaps", f.alice,
		`{"responder_id":"`+f.bob.String()+`","offered_skill_id":"`+f.guitar.ID.String()+`","wanted_skill_id":"`+f.spanish.ID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "A swap request already exists for these skills", env.Message)
}

func TestSwapAPI_ListSplitsIncomingAndOutgoing(t *testing.T) {
	f := newAPI(t)
	created := f.propose(t)

	var list struct {
		Incoming []swapBody `json:"incoming"`
		Outgoing []swapBody `json:"outgoing"`
	}

	status, env := f.do(t, http.MethodGet, "/api/v1/swaps", f.bob, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Incoming, 1)
	assert.Equal(t, created.ID, list.Incoming[0].ID)
	assert.Empty(t, list.Outgoing)

	status, env = f.do(t, http.MethodGet, "/api/v1/swaps?status=accepted", f.alice, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Incoming)
	assert.Empty(t, list.Outgoing)
}

func TestSwapAPI_GetForParticipant(t *testing.T) {
	f := newAPI(t)
	created := f.propose(t)

	status, env := f.do(t, http.MethodGet, "/api/v1/swaps/"+created.ID.String(), f.bob, "")
	require.Equal(t, http.StatusOK, status)
	var got swapBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	handler.NewHealthHandler(nil).RegisterRoutes(app)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	degraded := fiber.New()
	handler.NewHealthHandler(map[string]handler.Pinger{"postgres": downPinger{}}).RegisterRoutes(degraded)
	resp, err = degraded.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
