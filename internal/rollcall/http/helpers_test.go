package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	rchttp "github.com/aussiebroadwan/rollcall/internal/rollcall/http"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "bartab-auth"
	testAudience = "rollcall"

	orgID   = "club"
	eventID = "evt-1"

	adminID  = "u-admin"
	takerID  = "u-taker"
	memberID = "u-member"
	guestID  = "u-guest"
)

var (
	eventStart = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
)

type testServer struct {
	handler http.Handler
	store   store.Store
	clock   *clockx.FakeClock
	signer  jwtx.Signer
	keys    *jwtx.KeySet
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "rollcall.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	start, end := eventStart, eventEnd
	require.NoError(t, service.ApplySeed(ctx, st, service.Seed{
		Organizations: []service.SeedOrganization{{
			ID: orgID,
			Members: []service.SeedMember{
				{UserID: adminID, Role: domain.RoleAdmin},
				{UserID: takerID, Role: domain.RoleAttendanceTaker},
				{UserID: memberID, Role: domain.RoleMember},
			},
		}},
		Events: []service.SeedEvent{{ID: eventID, OrganizationID: orgID, Name: "Game night", Start: &start, End: &end}},
	}))

	signer, err := jwtx.GenerateSignerEdDSA("test-key")
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := jwtx.NewVerifierEdDSA(keys, testIssuer, []string{testAudience})

	clock := clockx.Fake(eventStart.Add(time.Hour))
	audit := &service.AuditTrail{Store: st, Clock: clock}
	dir := &service.StoreDirectory{Store: st}
	tags := &service.TagService{Store: st, Audit: audit, Clock: clock}

	router := rchttp.NewRouter(keys, verifier, "test", st, slogx.Discard())
	router.TagService = tags
	router.AuditTrail = audit
	router.AttendanceService = &service.AttendanceService{
		Store:       st,
		Gate:        &service.AuthorizationGate{Members: dir},
		Events:      dir,
		Members:     dir,
		Audit:       audit,
		Clock:       clock,
		Tags:        tags,
		AllowGuests: true,
	}
	router.ApplyRoutes()

	return &testServer{handler: router, store: st, clock: clock, signer: signer, keys: keys}
}

func (s *testServer) token(t *testing.T, userID string, scopes ...string) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(userID, scopes, 5*time.Minute, testIssuer, []string{testAudience}, time.Now().UTC())
	tok, err := s.signer.Sign(claims)
	require.NoError(t, err)
	return tok
}

// do sends body as JSON on behalf of userID. An empty userID sends no
// Authorization header.
func (s *testServer) do(t *testing.T, method, path, userID string, body any, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, userID, scopes...))
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
