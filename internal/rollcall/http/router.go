package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"

	_ "github.com/aussiebroadwan/rollcall/api/rollcall" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	TagService        *service.TagService
	AttendanceService *service.AttendanceService
	AuditTrail        *service.AuditTrail
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTags()
	r.registerAttendance()
	r.registerAudit()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Rollcall API
//	@version		0.1.0
//	@description	NFC/QR tag provisioning and event attendance for AussieBroadWAN organizations.
//	@description
//	@description				Bearer tokens are issued by the auth service and verified against its JWKS (EdDSA).
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/rollcall
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerTags() {
	h := &TagHandler{TagService: r.TagService}

	// Tag writes - strict rate limit by user (a physical write needs a handful of calls at most)
	r.Mux.Handle("POST /v1/tag/prepare",
		httpx.Chain(http.HandlerFunc(h.HandlePrepare),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/tag/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/tag/generate",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// Reads - moderate rate limit by user
	r.Mux.Handle("GET /v1/tag/can-write",
		httpx.Chain(http.HandlerFunc(h.HandleCanWrite),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/tag/qr",
		httpx.Chain(http.HandlerFunc(h.HandleQR),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAttendance() {
	h := &AttendanceHandler{AttendanceService: r.AttendanceService}

	// POST /attendance - scan limit by operator (a door station pushes a queue through quickly)
	r.Mux.Handle("POST /v1/attendance",
		httpx.Chain(http.HandlerFunc(h.HandleMark),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ScanLimit),
		),
	)

	// Corrections - moderate rate limit by user
	r.Mux.Handle("PATCH /v1/attendance/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/attendance/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Event listing - limited per user and event
	r.Mux.Handle("GET /v1/attendance/event/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGetEvent),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUserAndPathValue(httpx.ModerateLimit, "id"),
		),
	)
}

func (r *Router) registerAudit() {
	h := &AuditHandler{AuditTrail: r.AuditTrail}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),   // verify JWT (iss/aud/exp)
		httpx.RequireAnyScope("audit:read"), // enforce scope
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/audit", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
