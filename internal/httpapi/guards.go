package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/audit"
	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/member"
	"chapterhub.org/internal/obs"
)

const (
	outcomeAllow      = "allow"
	outcomeDeny       = "deny"
	outcomeBadRequest = "bad_request"
	outcomeError      = "error"
)

// GuardOptions tunes where a guard looks for its resource identifier.
type GuardOptions struct {
	// Field overrides the default field name (chapterId or zoneId).
	Field string
	// Optional lets requests without the identifier through unchecked.
	Optional bool
}

func (o GuardOptions) field(def string) string {
	if o.Field != "" {
		return o.Field
	}
	return def
}

// RoleChecker authorizes a chapter by role type.
type RoleChecker interface {
	Check(ctx context.Context, info access.RoleInfo, chapterID int64, accepted []member.ChapterRoleType) error
}

type resourceKey string

// ResourceID returns the identifier a guard resolved for field, if any.
func ResourceID(ctx context.Context, field string) (int64, bool) {
	id, ok := ctx.Value(resourceKey(field)).(int64)
	return id, ok
}

// RequireChapterAccess passes when the caller may see the chapter named by
// the request.
func (a *API) RequireChapterAccess(opts GuardOptions) func(http.Handler) http.Handler {
	return a.guard(access.GuardChapter, opts.field(access.DefaultChapterField), opts.Optional,
		func(_ context.Context, info access.RoleInfo, id int64) error {
			return access.CheckChapter(info, id)
		})
}

// RequireZoneAccess passes only for admins and zone officers of that zone.
func (a *API) RequireZoneAccess(opts GuardOptions) func(http.Handler) http.Handler {
	return a.guard(access.GuardZone, opts.field(access.DefaultZoneField), opts.Optional,
		func(_ context.Context, info access.RoleInfo, id int64) error {
			return access.CheckZone(info, id)
		})
}

// RequireChapterRole passes when the caller holds one of accepted in the
// chapter named by the request.
func (a *API) RequireChapterRole(opts GuardOptions, accepted ...member.ChapterRoleType) func(http.Handler) http.Handler {
	return a.guard(access.GuardRoleType, opts.field(access.DefaultChapterField), opts.Optional,
		func(ctx context.Context, info access.RoleInfo, id int64) error {
			return a.roles.Check(ctx, info, id, accepted)
		})
}

type checkFunc func(ctx context.Context, info access.RoleInfo, id int64) error

func (a *API) guard(name, field string, optional bool, check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := access.RoleInfoFrom(r.Context())
			if !ok {
				a.deny(w, r, name, 0, access.Internal("access descriptor missing", fmt.Errorf("guard %s mounted without inference", name)))
				return
			}
			if info.Unrestricted() {
				obs.ObserveGuard(name, outcomeAllow)
				next.ServeHTTP(w, r)
				return
			}

			id, found, err := requestExtractor(r).ID(field, optional)
			if err != nil {
				a.deny(w, r, name, 0, err)
				return
			}
			if !found {
				obs.ObserveGuard(name, outcomeAllow)
				next.ServeHTTP(w, r)
				return
			}
			if err := check(r.Context(), info, id); err != nil {
				a.deny(w, r, name, id, err)
				return
			}
			obs.ObserveGuard(name, outcomeAllow)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resourceKey(field), id)))
		})
	}
}

func (a *API) deny(w http.ResponseWriter, r *http.Request, guard string, resourceID int64, err error) {
	fields := map[string]any{
		"guard":       guard,
		"resource_id": resourceID,
	}
	switch access.KindOf(err) {
	case access.KindInternal:
		obs.ObserveGuard(guard, outcomeError)
		fields["request_id"] = audit.RequestID(r.Context())
		fields["principal_id"] = auth.PrincipalID(r.Context())
		fields["error"] = err
		obs.Error("access guard failed", fields)
	case access.KindBadRequest:
		obs.ObserveGuard(guard, outcomeBadRequest)
	default:
		obs.ObserveGuard(guard, outcomeDeny)
		fields["reason"] = access.AsError(err).Message
		_ = audit.LogEvent(r.Context(), "access.denied", fields)
	}
	writeAccessError(w, r, err)
}

// requestExtractor reads identifiers from the path, then the query string,
// then a JSON body. Admin requests never reach it.
func requestExtractor(r *http.Request) access.Extractor {
	query := r.URL.Query()
	return access.Extractor{
		{Name: "path", Lookup: func(field string) (string, bool) {
			v := r.PathValue(field)
			return v, v != ""
		}},
		{Name: "query", Lookup: func(field string) (string, bool) {
			if !query.Has(field) {
				return "", false
			}
			return query.Get(field), true
		}},
		bodySource(r),
	}
}

// bodySource decodes a JSON object body on first use and puts the bytes back
// so handlers can still read it.
func bodySource(r *http.Request) access.Source {
	var (
		loaded bool
		fields map[string]any
	)
	return access.Source{
		Name: "body",
		Lookup: func(field string) (string, bool) {
			if !loaded {
				loaded = true
				fields = peekJSONBody(r)
			}
			v, ok := fields[field]
			if !ok || v == nil {
				return "", false
			}
			switch t := v.(type) {
			case string:
				return t, true
			case json.Number:
				return t.String(), true
			default:
				return fmt.Sprint(t), true
			}
		},
	}
}

func peekJSONBody(r *http.Request) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil
		}
	}
	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil
	}
	return fields
}
