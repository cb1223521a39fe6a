package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted source keeps remote", []string{"10.0.0.0/8"}, "203.0.113.9:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "203.0.113.9:5000"},
		{"trusted proxy real ip", []string{"10.0.0.0/8"}, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"trusted single address forwarded for", []string{"127.0.0.1"}, "127.0.0.1:80",
			map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}, "198.51.100.7"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:5000"},
		{"no trusted proxies", nil, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "10.1.2.3:5000"},
		{"bad cidr skipped", []string{"nonsense", "10.0.0.0/8"}, "10.9.9.9:1",
			map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirm(t *testing.T) {
	var got string
	h := Firm(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FirmID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(FirmHeader, "  firm-7 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "firm-7", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, got)
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
