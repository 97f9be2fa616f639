package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"financially/internal/config"
	"financially/internal/models"
	"financially/internal/session"
)

type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Duration) error { return errors.New("down") }
func (failingStore) IsRevoked(context.Context, string) (bool, error)     { return false, errors.New("down") }

func setupAuthRouter(store session.Store) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(store))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(ContextUserID),
			"email":    c.GetString(ContextEmail),
			"token_id": c.GetString(ContextTokenID),
		})
	})
	return r
}

func authRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testUser() *models.User {
	u := &models.User{FullName: "Ada Lovelace", Email: "ada@example.com"}
	u.ID = "0190c5a4-0000-7000-8000-000000000001"
	return u
}

func TestGenerateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("token should parse: %v", err)
	}
	if claims.UserID != testUser().ID {
		t.Errorf("user id = %q, want %q", claims.UserID, testUser().ID)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}

	other, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	otherClaims, _ := ParseAccessToken(other)
	if otherClaims.ID == claims.ID {
		t.Error("each token should carry its own id")
	}
}

func TestParseAccessToken_Rejects(t *testing.T) {
	t.Run("wrong_key", func(t *testing.T) {
		claims := &JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
			ID: "j", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-key"))
		if _, err := ParseAccessToken(signed); err == nil {
			t.Error("expected error for foreign signature")
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := &JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
			ID: "j", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().JWTSecret))
		if _, err := ParseAccessToken(signed); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("missing_token_id", func(t *testing.T) {
		claims := &JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().JWTSecret))
		if _, err := ParseAccessToken(signed); err == nil {
			t.Error("expected error for token without jti")
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	token, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("valid_token", func(t *testing.T) {
		rec := authRequest(setupAuthRouter(session.NewMemoryStore()), "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		body := parseBody(t, rec)
		if body["user_id"] != testUser().ID {
			t.Errorf("user_id = %v", body["user_id"])
		}
		if body["token_id"] == "" {
			t.Error("expected token id in context")
		}
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"wrong_scheme", "Basic " + token},
		{"garbage_token", "Bearer not-a-jwt"},
		{"extra_parts", "Bearer " + token + " extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := authRequest(setupAuthRouter(session.NewMemoryStore()), tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("error code = %q, want UNAUTHORIZED", code)
			}
		})
	}

	t.Run("revoked_token", func(t *testing.T) {
		claims, _ := ParseAccessToken(token)
		store := session.NewMemoryStore()
		if err := store.Revoke(context.Background(), claims.ID, time.Hour); err != nil {
			t.Fatalf("revoke: %v", err)
		}

		rec := authRequest(setupAuthRouter(store), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("revocation_store_down", func(t *testing.T) {
		rec := authRequest(setupAuthRouter(failingStore{}), "Bearer "+token)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
