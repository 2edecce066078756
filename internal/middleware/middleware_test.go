package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models/dto"
	"github.com/yigit/studentauth/internal/metrics"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error envelope %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("bad", nil), http.StatusBadRequest},
		{apperrors.NewBadRequestError("bad"), http.StatusBadRequest},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("%w: sig", apperrors.ErrTokenInvalid), http.StatusUnauthorized},
		{apperrors.ErrTokenNotFound, http.StatusUnauthorized},
		{apperrors.ErrStudentNotFound, http.StatusNotFound},
		{apperrors.NewResourceNotFoundError("gone"), http.StatusNotFound},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict},
		{apperrors.ErrUsnAlreadyExists, http.StatusConflict},
		{apperrors.NewConflictError("dup"), http.StatusConflict},
		{apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{apperrors.ErrTokenSigning, http.StatusInternalServerError},
		{apperrors.NewInternalError("oops", apperrors.ErrStudentNotFound), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForError(tt.err); got != tt.want {
			t.Errorf("StatusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleAPIError_WritesEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		HandleAPIError(c, apperrors.NewValidationError("All fields are required", []apperrors.FieldError{
			{Field: "email", Message: "email is required"},
		}))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Success || resp.StatusCode != 400 || resp.Message != "All fields are required" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "email" {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestHandleAPIError_HidesInternalDetails(t *testing.T) {
	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		HandleAPIError(c, fmt.Errorf("pq: connection refused at 10.0.0.3"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	resp := decodeError(t, rec)
	if rec.Code != 500 || resp.Message != "Internal server error" {
		t.Errorf("status = %d, envelope = %+v", rec.Code, resp)
	}
}

func TestErrorHandler_RendersContextErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/ctx-error", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrStudentNotFound)
	})
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("logged only"))
		c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, nil, "ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ctx-error", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for an already written response", rec.Code)
	}
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Success {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

type bindTarget struct {
	Name string `json:"name" form:"name"`
	Age  *int   `json:"age" form:"age"`
}

func newBindRouter(jsonLimit, formLimit int64) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(jsonLimit, formLimit))
	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if err := BindRequest(c, &req); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, req)
	})
	return r
}

func TestBindRequest(t *testing.T) {
	r := newBindRouter(1024, 64)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantName    string
	}{
		{"json", "application/json", `{"name":"asha","age":20}`, http.StatusOK, "asha"},
		{"form", "application/x-www-form-urlencoded", "name=asha&age=20", http.StatusOK, "asha"},
		{"empty json body", "application/json", "", http.StatusOK, ""},
		{"malformed json", "application/json", `{"name":`, http.StatusBadRequest, ""},
		{"bad form number", "application/x-www-form-urlencoded", "age=old", http.StatusBadRequest, ""},
		{"form over limit", "application/x-www-form-urlencoded", "name=" + strings.Repeat("a", 100), http.StatusRequestEntityTooLarge, ""},
		{"json over limit", "application/json", `{"name":"` + strings.Repeat("a", 2000) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var got bindTarget
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if got.Name != tt.wantName {
					t.Errorf("name = %q, want %q", got.Name, tt.wantName)
				}
			}
		})
	}
}

func TestBodyLimit_UnknownLengthIsStillCapped(t *testing.T) {
	r := newBindRouter(1024, 64)

	// A reader without a known length forces the MaxBytesReader path.
	body := bytes.NewBufferString("name=" + strings.Repeat("a", 100))
	req := httptest.NewRequest(http.MethodPost, "/bind", struct{ *bytes.Buffer }{body})
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

type stubAuthenticator struct {
	valid map[string]string
}

func (s stubAuthenticator) Authenticate(token string) (string, error) {
	if id, ok := s.valid[token]; ok {
		return id, nil
	}
	return "", apperrors.ErrTokenInvalid
}

func newAuthRouter() *gin.Engine {
	m := NewAuthMiddleware(stubAuthenticator{valid: map[string]string{"good": "student-1"}})
	r := gin.New()
	handler := func(c *gin.Context) {
		id, _ := StudentID(c)
		c.String(http.StatusOK, id)
	}
	r.GET("/private", m.RequireStudent(), handler)
	r.GET("/optional", m.IdentifyStudent(), handler)
	return r
}

func TestAuthMiddleware_RequireStudent(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"cookie", "good", "", http.StatusOK, "student-1"},
		{"bearer header", "", "Bearer good", http.StatusOK, "student-1"},
		{"no token", "", "", http.StatusUnauthorized, ""},
		{"invalid cookie", "bad", "", http.StatusUnauthorized, ""},
		{"empty bearer", "", "Bearer ", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuthMiddleware_IdentifyStudentNeverRejects(t *testing.T) {
	r := newAuthRouter()

	for _, cookie := range []string{"", "bad", "good"} {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookie})
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("cookie %q: status = %d, want 200", cookie, rec.Code)
		}
		want := ""
		if cookie == "good" {
			want = "student-1"
		}
		if rec.Body.String() != want {
			t.Errorf("cookie %q: body = %q, want %q", cookie, rec.Body.String(), want)
		}
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.NoRoute(StaticFallback(dir))

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/", http.StatusOK, "<h1>home</h1>"},
		{http.MethodGet, "/app.js", http.StatusOK, "console.log(1)"},
		{http.MethodGet, "/../../etc/passwd", http.StatusNotFound, ""},
		{http.MethodGet, "/missing.css", http.StatusNotFound, ""},
		{http.MethodPost, "/app.js", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
			t.Errorf("%s %s: body = %q", tt.method, tt.path, rec.Body.String())
		}
	}
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(Metrics(metrics.NewCollector(reg)))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/42", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "studentauth_http_requests_total" {
			continue
		}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			if lp.GetName() == "route" && lp.GetValue() != "/students/:id" {
				t.Errorf("route label = %q, want /students/:id", lp.GetValue())
			}
		}
		return
	}
	t.Error("studentauth_http_requests_total not found")
}
