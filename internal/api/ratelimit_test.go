package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := newRateLimiter(0.001, 3)

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))

	// Separate IPs get their own buckets.
	assert.True(t, rl.allow("5.6.7.8"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.1:5000",
			want:       "192.168.1.1",
		},
		{
			name:       "x-real-ip ignored without trust",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			want:       "192.168.1.1",
		},
		{
			name:       "x-real-ip honored with trust",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			trustProxy: true,
			want:       "10.0.0.9",
		},
		{
			name:       "x-forwarded-for first entry",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.9, 172.16.0.1"},
			trustProxy: true,
			want:       "10.0.0.9",
		},
		{
			name:       "invalid header falls back to remote addr",
			remoteAddr: "192.168.1.1:5000",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			trustProxy: true,
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trustProxy))
		})
	}
}
