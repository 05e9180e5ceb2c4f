package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"CasinoMassProgram/api"
)

// Claims carried by every issued bearer token.
type Claims struct {
	UserName string `json:"userName"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var ErrMissingSigningKey = errors.New("JWT_SECRET is not configured")

func signingKey() ([]byte, error) {
	key := os.Getenv("JWT_SECRET")
	if key == "" {
		return nil, ErrMissingSigningKey
	}
	return []byte(key), nil
}

// GenerateToken signs a time-limited token carrying username and role claims.
func GenerateToken(userName, role string, expireMinutes int) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}
	if expireMinutes <= 0 {
		expireMinutes = 30
	}
	now := time.Now()
	claims := Claims{
		UserName: userName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "CasinoMassProgram",
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireMinutes) * time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken validates a bearer token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ClaimsFromRequest extracts and validates the Authorization bearer token.
func ClaimsFromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing Authorization header")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, errors.New("Authorization header must be a Bearer token")
	}
	return ParseToken(strings.TrimSpace(tokenString))
}

// RequireRole wraps a handler so only callers holding one of the given role
// claims get through. With no roles listed, any valid token is accepted.
func RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromRequest(r)
		if err != nil {
			api.RespondWithError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}
		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if strings.EqualFold(claims.Role, role) {
					allowed = true
					break
				}
			}
			if !allowed {
				api.RespondWithError(w, http.StatusForbidden, "Forbidden: insufficient role")
				return
			}
		}
		r.Header.Set("X-User-Name", claims.UserName)
		next(w, r)
	}
}

// ActingUser returns the username stamped by RequireRole, or the system user.
func ActingUser(r *http.Request) string {
	if name := r.Header.Get("X-User-Name"); name != "" {
		return name
	}
	return "System"
}
