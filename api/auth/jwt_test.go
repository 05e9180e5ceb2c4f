package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"CasinoMassProgram/internal/config"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("alice", config.AdminRole, 30)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserName != "alice" || claims.Role != config.AdminRole {
		t.Errorf("claims = %+v", claims)
	}
}

func TestGenerateTokenMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := GenerateToken("alice", config.UserRole, 30); err != ErrMissingSigningKey {
		t.Fatalf("expected ErrMissingSigningKey, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := RequireRole(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, config.AdminRole)

	tests := []struct {
		name       string
		token      func() string
		wantStatus int
	}{
		{
			name: "admin passes",
			token: func() string {
				tok, _ := GenerateToken("alice", config.AdminRole, 30)
				return tok
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "user forbidden",
			token: func() string {
				tok, _ := GenerateToken("bob", config.UserRole, 30)
				return tok
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing token",
			token:      func() string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			token:      func() string { return "not.a.token" },
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tok := tt.token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestActingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if got := ActingUser(req); got != "System" {
		t.Errorf("ActingUser without header = %q, want System", got)
	}
	req.Header.Set("X-User-Name", "alice")
	if got := ActingUser(req); got != "alice" {
		t.Errorf("ActingUser = %q, want alice", got)
	}
}
