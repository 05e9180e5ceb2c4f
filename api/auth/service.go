package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"CasinoMassProgram/api"
	"CasinoMassProgram/internal/config"
	"CasinoMassProgram/internal/logger"
	"CasinoMassProgram/internal/serviceiface"
)

type UserSession struct {
	UserName      string
	Role          string
	LastLoginTime string
	ClientIP      string
}

// AuthService serves /api/auth/login and keeps an in-memory registry of
// logged-in users for the audit trail.
type AuthService struct {
	db            *sql.DB
	port          int
	maxUsers      int
	expireMinutes int
	sessions      map[string]*UserSession
	mu            sync.Mutex
	srv           *http.Server
}

func NewAuthService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	toInt := func(v interface{}) int {
		switch t := v.(type) {
		case int:
			return t
		case int64:
			return int(t)
		case float64:
			return int(t)
		}
		return 0
	}
	port := toInt(cfg["port"])
	if port == 0 {
		port = 6210
	}
	maxUsers := toInt(cfg["max_users"])
	if maxUsers == 0 {
		maxUsers = 200
	}
	expire := toInt(cfg["token_expire_minutes"])
	if expire == 0 {
		expire = 30
	}
	return &AuthService{
		db:            db,
		port:          port,
		maxUsers:      maxUsers,
		expireMinutes: expire,
		sessions:      make(map[string]*UserSession),
	}
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", a.handleLogin)
	mux.HandleFunc("/api/auth/sessions", RequireRole(a.handleSessions, config.AdminRole))
	a.srv = &http.Server{Addr: fmt.Sprintf(":%d", a.port), Handler: mux}
	go func() {
		log.Printf("[auth] service started on :%d", a.port)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[auth] server error: %v", err)
		}
	}()
	return nil
}

func (a *AuthService) Stop() error {
	if a.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.srv.Shutdown(ctx)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *AuthService) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.RespondWithError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	role, err := a.login(req.Username, req.Password, r.RemoteAddr)
	if err != nil {
		api.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := GenerateToken(req.Username, role, a.expireMinutes)
	if err != nil {
		if errors.Is(err, ErrMissingSigningKey) {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
		} else {
			api.RespondWithError(w, http.StatusUnauthorized, err.Error())
		}
		return
	}

	api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"userName": req.Username,
	})
}

// login checks credentials against the users table and records the session.
func (a *AuthService) login(username, password, clientIP string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}
	if _, ok := a.sessions[username]; !ok && len(a.sessions) >= a.maxUsers {
		return "", errors.New("maximum concurrent users reached")
	}

	var (
		userStatus string
		roleName   sql.NullString
	)
	query := `
	SELECT u.status, r.name
	FROM users u
	LEFT JOIN user_roles ur ON u.id = ur.user_id
	LEFT JOIN roles r ON ur.role_id = r.id
	WHERE u.username = $1 AND u.password = $2
	`
	err := a.db.QueryRow(query, username, password).Scan(&userStatus, &roleName)
	if err != nil {
		return "", errors.New("invalid credentials or user not found")
	}
	if userStatus != "Active" {
		return "", errors.New("account is not active")
	}

	role := roleName.String
	if role == "" {
		role = config.UserRole
	}

	a.sessions[username] = &UserSession{
		UserName:      username,
		Role:          role,
		LastLoginTime: time.Now().Format(time.RFC3339),
		ClientIP:      clientIP,
	}
	logger.Audit("user %s logged in (%s)", username, clientIP)
	return role, nil
}

// handleSessions lists logged-in users for the operator audit view.
func (a *AuthService) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondWithError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": a.ActiveSessions(),
	})
}

// ActiveSessions returns a snapshot of logged-in users.
func (a *AuthService) ActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*UserSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s)
	}
	return out
}
