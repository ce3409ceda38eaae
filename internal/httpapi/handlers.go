package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/audit"
	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/ids"
	"chapterhub.org/internal/member"
	"chapterhub.org/internal/obs"
)

const serviceName = "chapterhub-api"

// ReadyChecker reports whether dependencies are reachable.
type ReadyChecker interface {
	Check(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Authenticator Authenticator
	Engine        RoleInferrer
	RoleGuard     RoleChecker
	Store         member.Store
	Ready         ReadyChecker
	Version       string
}

// API is the HTTP surface.
type API struct {
	mux     *http.ServeMux
	authn   Authenticator
	engine  RoleInferrer
	roles   RoleChecker
	store   member.Store
	ready   ReadyChecker
	version string

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// Option configures API.
type Option func(*API)

// WithRateLimit sets the per-IP token bucket.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

func New(deps Deps, opts ...Option) (*API, error) {
	switch {
	case deps.Authenticator == nil:
		return nil, errors.New("httpapi: authenticator is required")
	case deps.Engine == nil:
		return nil, errors.New("httpapi: role engine is required")
	case deps.RoleGuard == nil:
		return nil, errors.New("httpapi: role guard is required")
	case deps.Store == nil:
		return nil, errors.New("httpapi: member store is required")
	}
	a := &API{
		mux:          http.NewServeMux(),
		authn:        deps.Authenticator,
		engine:       deps.Engine,
		roles:        deps.RoleGuard,
		store:        deps.Store,
		ready:        deps.Ready,
		version:      deps.Version,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.routes()
	return a, nil
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.Handle("GET /v1/me/access", a.protect(http.HandlerFunc(a.MyAccess)))
	a.mux.Handle("GET /v1/zones/{zoneId}",
		a.protect(a.RequireZoneAccess(GuardOptions{})(http.HandlerFunc(a.GetZone))))
	a.mux.Handle("GET /v1/zones/{zoneId}/chapters",
		a.protect(a.RequireZoneAccess(GuardOptions{})(http.HandlerFunc(a.ListZoneChapters))))
	a.mux.Handle("GET /v1/chapters/{chapterId}",
		a.protect(a.RequireChapterAccess(GuardOptions{})(http.HandlerFunc(a.GetChapter))))
	a.mux.Handle("POST /v1/chapters/{chapterId}/meetings",
		a.protect(a.RequireChapterRole(GuardOptions{},
			member.ChapterOfficeBearer, member.ChapterDistrictCoordinator,
		)(http.HandlerFunc(a.ScheduleMeeting))))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
}

// Handler returns the fully wrapped handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ready.Check(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// MyAccess returns the caller's access descriptor.
func (a *API) MyAccess(w http.ResponseWriter, r *http.Request) {
	info, _ := access.RoleInfoFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"principal_id": auth.PrincipalID(r.Context()),
		"access":       info,
	})
}

func (a *API) GetZone(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := a.resourceID(w, r, access.DefaultZoneField)
	if !ok {
		return
	}
	zone, err := a.store.FindZone(r.Context(), zoneID)
	if err != nil {
		a.storeError(w, r, "zone", err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

func (a *API) ListZoneChapters(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := a.resourceID(w, r, access.DefaultZoneField)
	if !ok {
		return
	}
	chapters, err := a.store.ListChaptersByZone(r.Context(), zoneID)
	if err != nil {
		a.storeError(w, r, "zone", err)
		return
	}
	if chapters == nil {
		chapters = []member.Chapter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"zone_id":  zoneID,
		"chapters": chapters,
	})
}

func (a *API) GetChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := a.resourceID(w, r, access.DefaultChapterField)
	if !ok {
		return
	}
	chapter, err := a.store.FindChapter(r.Context(), chapterID)
	if err != nil {
		a.storeError(w, r, "chapter", err)
		return
	}
	writeJSON(w, http.StatusOK, chapter)
}

type meetingRequest struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
}

// ScheduleMeeting validates a meeting request for a chapter the caller
// officiates and returns the accepted record.
func (a *API) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := a.resourceID(w, r, access.DefaultChapterField)
	if !ok {
		return
	}
	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, string(access.KindBadRequest), "invalid JSON body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(w, r, http.StatusBadRequest, string(access.KindBadRequest), "title is required")
		return
	}
	if req.StartsAt.IsZero() {
		respondError(w, r, http.StatusBadRequest, string(access.KindBadRequest), "starts_at is required")
		return
	}
	if _, err := a.store.FindChapter(r.Context(), chapterID); err != nil {
		a.storeError(w, r, "chapter", err)
		return
	}

	meeting := map[string]any{
		"id":           ids.New(),
		"chapter_id":   chapterID,
		"title":        req.Title,
		"starts_at":    req.StartsAt.UTC(),
		"scheduled_by": auth.PrincipalID(r.Context()),
	}
	_ = audit.LogEvent(r.Context(), "meeting.scheduled", meeting)
	writeJSON(w, http.StatusCreated, meeting)
}

// resourceID returns the id the guard resolved, or extracts it for requests
// that bypassed extraction.
func (a *API) resourceID(w http.ResponseWriter, r *http.Request, field string) (int64, bool) {
	if id, ok := ResourceID(r.Context(), field); ok {
		return id, true
	}
	id, _, err := requestExtractor(r).ID(field, false)
	if err != nil {
		writeAccessError(w, r, err)
		return 0, false
	}
	return id, true
}

func (a *API) storeError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	if errors.Is(err, member.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "not_found", resource+" not found")
		return
	}
	obs.Error("store lookup failed", map[string]any{
		"request_id":   audit.RequestID(r.Context()),
		"principal_id": auth.PrincipalID(r.Context()),
		"resource":     resource,
		"error":        err,
	})
	writeAccessError(w, r, access.Internal("store lookup failed", err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
