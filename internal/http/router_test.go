package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/notify"
	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/internal/store/drivers/sqlite"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "crewdeck-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// The scenario tests hammer single endpoints from one address, so
	// the per-IP buckets need headroom.
	generous := httpx.RateLimitConfig{
		RequestsPerWindow: 10000,
		Window:            time.Minute,
		Burst:             10000,
	}
	httpx.StrictLimit = generous
	httpx.ModerateLimit = generous
	httpx.LenientLimit = generous

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	router *Router
	store  store.Store
}

func newTestEnv(t *testing.T, allowSeed bool) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	secret := []byte("test-secret-0123456789")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(secret, "crewdeck-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(verifier, "test", st, logger)
	router.TokenService = &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Issuer:   "crewdeck-test",
		TTL:      time.Hour,
	}
	router.UserService = &service.UserService{Store: st}
	router.InviteService = &service.InviteService{
		Store:       st,
		Notifier:    notify.NewLogNotifier(),
		FrontendURL: "https://crewdeck.test",
	}
	router.BootstrapService = &service.BootstrapService{Store: st, Enabled: allowSeed}
	router.ProjectService = &service.ProjectService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// seedAdmin creates the first admin through the seed endpoint and logs
// them in, returning their bearer token.
func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/dev/seed-admin", "", map[string]string{
		"name":     "Root",
		"email":    "root@example.com",
		"password": "super-secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return e.login(t, "root@example.com", "super-secret-pass")
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// inviteAndRegister runs the full onboarding flow for one user and
// returns their bearer token.
func (e *testEnv) inviteAndRegister(t *testing.T, adminToken, email, role, name, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/invite", adminToken, map[string]string{
		"email": email,
		"role":  role,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var invited struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &invited)

	rec = e.do(t, http.MethodPost, "/auth/register-via-invite", "", map[string]string{
		"token":    invited.Token,
		"name":     name,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return e.login(t, email, password)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedAdmin(t)

	t.Run("mixed case email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "Root@Example.com",
			"password": "super-secret-pass",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "root@example.com",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email gets identical error", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "ghost@example.com",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp struct {
			Error string `json:"error"`
		}
		decodeBody(t, rec, &resp)
		require.Equal(t, "invalid_credentials", resp.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "not-an-email",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSeedAdminEndpoint(t *testing.T) {
	t.Run("disabled deployment refuses", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.do(t, http.MethodPost, "/dev/seed-admin", "", map[string]string{
			"name":     "Root",
			"email":    "root@example.com",
			"password": "super-secret-pass",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("second seed conflicts", func(t *testing.T) {
		env := newTestEnv(t, true)
		env.seedAdmin(t)

		rec := env.do(t, http.MethodPost, "/dev/seed-admin", "", map[string]string{
			"name":     "Root Two",
			"email":    "root2@example.com",
			"password": "super-secret-pass",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestInviteFlow(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)

	rec := env.do(t, http.MethodPost, "/auth/invite", adminToken, map[string]string{
		"email": "alice@example.com",
		"role":  "MANAGER",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var invited struct {
		Token     string `json:"token"`
		InviteURL string `json:"inviteUrl"`
		Invite    struct {
			Email string `json:"email"`
		} `json:"invite"`
	}
	decodeBody(t, rec, &invited)
	require.NotEmpty(t, invited.Token)
	require.Contains(t, invited.InviteURL, invited.Token)
	require.Equal(t, "alice@example.com", invited.Invite.Email)

	rec = env.do(t, http.MethodPost, "/auth/register-via-invite", "", map[string]string{
		"token":    invited.Token,
		"name":     "Alice",
		"password": "super-secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The invite is single use.
	rec = env.do(t, http.MethodPost, "/auth/register-via-invite", "", map[string]string{
		"token":    invited.Token,
		"name":     "Mallory",
		"password": "another-pass-123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var replayed struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &replayed)
	require.Equal(t, "invite_used", replayed.Error)

	// A token that was never issued is a bad request, not a not-found.
	rec = env.do(t, http.MethodPost, "/auth/register-via-invite", "", map[string]string{
		"token":    "never-issued-token",
		"name":     "Mallory",
		"password": "another-pass-123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// So is one past its expiry.
	expiredToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, env.store.Invites().CreateInvite(context.Background(), domain.Invite{
		ID:        idx.New().String(),
		Email:     "late@example.com",
		Role:      domain.RoleStaff,
		TokenHash: cryptox.FingerprintToken(expiredToken),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	rec = env.do(t, http.MethodPost, "/auth/register-via-invite", "", map[string]string{
		"token":    expiredToken,
		"name":     "Late",
		"password": "another-pass-123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var expired struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &expired)
	require.Equal(t, "invite_expired", expired.Error)

	// The invited user can log in with their role in effect.
	aliceToken := env.login(t, "alice@example.com", "super-secret-pass")
	rec = env.do(t, http.MethodGet, "/projects", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInviteDeliveryFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)

	t.Setenv("NOTIFIER_FAIL", "1")
	rec := env.do(t, http.MethodPost, "/auth/invite", adminToken, map[string]string{
		"email": "carol@example.com",
		"role":  "STAFF",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, "delivery_failed", resp.Error)

	// The rolled-back invite does not block a retry.
	t.Setenv("NOTIFIER_FAIL", "")
	rec = env.do(t, http.MethodPost, "/auth/invite", adminToken, map[string]string{
		"email": "carol@example.com",
		"role":  "STAFF",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestInviteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)
	staffToken := env.inviteAndRegister(t, adminToken, "staff@example.com", "STAFF", "Staff", "super-secret-pass")

	t.Run("staff forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/invite", staffToken, map[string]string{
			"email": "more@example.com",
			"role":  "STAFF",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous unauthorized", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/invite", "", map[string]string{
			"email": "more@example.com",
			"role":  "STAFF",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUsersEndpoints(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)
	env.inviteAndRegister(t, adminToken, "alice@example.com", "STAFF", "Alice", "super-secret-pass")

	rec := env.do(t, http.MethodGet, "/users?page=1&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Total int64 `json:"total"`
		Items []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"items"`
	}
	decodeBody(t, rec, &list)
	require.EqualValues(t, 2, list.Total)
	require.Len(t, list.Items, 2)

	var aliceID string
	for _, item := range list.Items {
		if item.Email == "alice@example.com" {
			aliceID = item.ID
		}
	}
	require.NotEmpty(t, aliceID)

	t.Run("promote", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/users/"+aliceID+"/role", adminToken, map[string]string{
			"role": "MANAGER",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var user struct {
			Role string `json:"role"`
		}
		decodeBody(t, rec, &user)
		require.Equal(t, "MANAGER", user.Role)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/users/"+aliceID+"/role", adminToken, map[string]string{
			"role": "OVERLORD",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deactivation revokes live tokens", func(t *testing.T) {
		aliceToken := env.login(t, "alice@example.com", "super-secret-pass")

		rec := env.do(t, http.MethodGet, "/projects", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPatch, "/users/"+aliceID+"/status", adminToken, map[string]string{
			"status": "INACTIVE",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		// The unexpired token is now refused.
		rec = env.do(t, http.MethodGet, "/projects", aliceToken, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		// And so is a fresh login.
		rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "super-secret-pass",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, rec, &body)
		require.Equal(t, "user_inactive", body.Error)
	})
}

func TestProjectsEndpoints(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)
	managerToken := env.inviteAndRegister(t, adminToken, "pm@example.com", "MANAGER", "PM", "super-secret-pass")
	staffToken := env.inviteAndRegister(t, adminToken, "staff@example.com", "STAFF", "Staff", "super-secret-pass")

	rec := env.do(t, http.MethodPost, "/projects", managerToken, map[string]string{
		"name":        "Launch",
		"description": "Q3 launch planning",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var project struct {
		ID      string `json:"id"`
		Creator struct {
			Email string `json:"email"`
		} `json:"creator"`
	}
	decodeBody(t, rec, &project)
	require.Equal(t, "pm@example.com", project.Creator.Email)

	t.Run("staff may read and create but not mutate", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects", staffToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/projects", staffToken, map[string]string{
			"name": "Side Quest",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = env.do(t, http.MethodPatch, "/projects/"+project.ID, staffToken, map[string]string{
			"name": "Hijacked",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("partial update is admin only", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/projects/"+project.ID, managerToken, map[string]string{
			"status": "ARCHIVED",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodPatch, "/projects/"+project.ID, adminToken, map[string]string{
			"status": "ARCHIVED",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		decodeBody(t, rec, &updated)
		require.Equal(t, "Launch", updated.Name)
		require.Equal(t, "ARCHIVED", updated.Status)
	})

	t.Run("delete is admin only", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/projects/"+project.ID, managerToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodDelete, "/projects/"+project.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Deleted projects vanish from the listing.
		rec = env.do(t, http.MethodGet, "/projects", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		decodeBody(t, rec, &list)
		for _, item := range list.Items {
			require.NotEqual(t, project.ID, item.ID)
		}

		rec = env.do(t, http.MethodPatch, "/projects/"+project.ID, adminToken, map[string]string{
			"name": "Ghost",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, rec, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks["database"])
}

func TestTamperedTokenRejected(t *testing.T) {
	env := newTestEnv(t, true)
	adminToken := env.seedAdmin(t)

	rec := env.do(t, http.MethodGet, "/users", adminToken+"x", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
