package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storerating/internal/auth"
	"storerating/internal/config"
	"storerating/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const middlewareTestSecret = "middleware-test-secret"

func newAuthTestRouter(t *testing.T) (*gin.Engine, *HTTPHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		JWTSecret:            middlewareTestSecret,
		JWTIssuer:            "store-rating-test",
		JWTExpirationMinutes: 60,
	}
	handler, err := NewHTTPHandler(cfg, nil, nil)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	r := gin.New()
	r.GET("/whoami", handler.AuthMiddleware(), func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.ID, "role": identity.Role})
	})
	return r, handler
}

// signClaims 用同一密钥手工签发令牌，便于构造过期用例
func signClaims(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(middlewareTestSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuthMiddlewareErrorCodes(t *testing.T) {
	r, handler := newAuthTestRouter(t)

	validToken, _, err := handler.authManager.GenerateToken(&entity.DbUser{
		ID:    7,
		Name:  "Middleware Test User Full Name",
		Email: "middleware@example.com",
		Role:  entity.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	expiredToken := signClaims(t, auth.Claims{
		UserID: 7,
		Email:  "middleware@example.com",
		Role:   entity.UserRoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "store-rating-test",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "缺少 Authorization 头",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorized,
		},
		{
			name:           "格式错误的头",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorized,
		},
		{
			name:           "伪造的令牌",
			header:         "Bearer not-a-real-token",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorized,
		},
		{
			name:           "过期令牌返回专用错误码",
			header:         "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeSessionExpired,
		},
		{
			name:           "有效令牌放行",
			header:         "Bearer " + validToken,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode == "" {
				return
			}
			var body APIError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body.Code != tt.expectedCode {
				t.Fatalf("expected code %s, got %s", tt.expectedCode, body.Code)
			}
		})
	}
}

func TestAuthMiddlewareTokenWithWrongSignature(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: 7,
		Role:   entity.UserRoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("another-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	var body APIError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	// 签名不匹配不是会话过期，不能提示重新登录
	if body.Code != ErrCodeUnauthorized {
		t.Fatalf("expected code %s, got %s", ErrCodeUnauthorized, body.Code)
	}
}
