package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSender_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config SMTPConfig
		want   bool
	}{
		{"full credentials", SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}, true},
		{"missing password", SMTPConfig{Host: "smtp.example.com", Username: "u"}, false},
		{"missing host", SMTPConfig{Username: "u", Password: "p"}, false},
		{"empty", SMTPConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSMTPSender(tt.config, nil)
			assert.Equal(t, tt.want, s.IsConfigured())
			assert.Equal(t, domain.ProviderPrimary, s.Kind())
		})
	}
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "billing@irontemple.in", FromName: "Iron Temple"}, nil)

	msg, err := s.buildMessage(testMessage())
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice INV-20240115-AB12 from Iron Temple"}, msg.GetGenHeader("Subject"))
	assert.Len(t, msg.GetAttachments(), 1)

	_, err = s.buildMessage(&Email{To: []string{"not an address"}, Subject: "x"})
	assert.Error(t, err)
}

func TestPostmarkSender_Send(t *testing.T) {
	var got postmarkEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "pm-token", r.Header.Get("X-Postmark-Server-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(postmarkResponse{To: got.To, MessageID: "pm-123"})
	}))
	defer srv.Close()

	p := NewPostmarkSender("pm-token", "billing@irontemple.in")
	p.baseURL = srv.URL

	id, err := p.Send(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, "pm-123", id)
	assert.Equal(t, "billing@irontemple.in", got.From)
	assert.Equal(t, "asha@example.com", got.To)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), got.Attachments[0].Content)
}

func TestPostmarkSender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusUnauthorized, `{"ErrorCode":10,"Message":"Bad token"}`, "status 401"},
		{"api error", http.StatusOK, `{"ErrorCode":300,"Message":"Invalid email request"}`, "postmark error 300"},
		{"bad json", http.StatusOK, `not json`, "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewPostmarkSender("pm-token", "billing@irontemple.in")
			p.baseURL = srv.URL

			_, err := p.Send(context.Background(), testMessage())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResendSender_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re-msg-1"}`))
	}))
	defer srv.Close()

	r, err := NewResendSender("re_123", "billing@irontemple.in").WithBaseURL(srv.URL + "/")
	require.NoError(t, err)

	id, err := r.Send(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, "re-msg-1", id)
	assert.Equal(t, "billing@irontemple.in", body["from"])
	assert.Equal(t, domain.ProviderSecondary, r.Kind())
	assert.True(t, r.IsConfigured())
	assert.False(t, NewResendSender("", "").IsConfigured())
}
