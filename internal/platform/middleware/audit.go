package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
)

// AuditEntry records who touched patient data, how, and with what outcome.
type AuditEntry struct {
	Username   string
	Roles      []string
	Hospital   string
	Resource   string
	PersonCID  string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. The middleware always logs; a
// recorder is an optional second sink.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// auditedPrefixes are the route families that expose patient records.
var auditedPrefixes = []string{"/persons", "/personshos", "/visits", "/fetchMed"}

// Audit emits a "phi_access" event for every request to a patient-data route,
// after the handler has run so the status code is known.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
				Resource:   extractResource(path),
				PersonCID:  extractPersonCID(c),
			}
			if err != nil {
				entry.StatusCode = StatusFromError(err)
			}
			if p := auth.PrincipalFromContext(req.Context()); p != nil {
				entry.Username = p.Username
				entry.Roles = p.Roles
				entry.Hospital = p.Hospital
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "phi_audit").
				Str("request_id", entry.RequestID).
				Str("username", entry.Username).
				Strs("roles", entry.Roles).
				Str("hospital", entry.Hospital).
				Str("resource", entry.Resource).
				Str("person_cid", entry.PersonCID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	for _, prefix := range auditedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResource returns the first path segment:
//
//	/persons/123/visits -> visits
//	/persons/123        -> persons
//	/fetchMed/123       -> fetchMed
func extractResource(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 && segments[0] == "persons" && segments[2] == "visits" {
		return "visits"
	}
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}

// extractPersonCID finds the citizen id a request is about, from the :cid
// route parameter or the person_cid field of the query.
func extractPersonCID(c echo.Context) string {
	for i, name := range c.ParamNames() {
		if name == "cid" && i < len(c.ParamValues()) {
			return c.ParamValues()[i]
		}
	}
	return c.QueryParam("person_cid")
}
