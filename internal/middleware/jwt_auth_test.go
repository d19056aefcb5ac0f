package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shopify_ai_dev_v1_202601/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestManager(ttl time.Duration) *JWTManager {
	return NewJWTManager(config.JWTConfig{Secret: "test-secret", TTL: ttl, Issuer: "test"})
}

// ==================== 签发与解析测试 ====================

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.Generate(42, "user@example.com")
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse 失败: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.Generate(1, "a@b.c")
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("过期 Token 应拒绝")
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	other := NewJWTManager(config.JWTConfig{Secret: "other-secret", TTL: time.Hour})

	token, _ := other.Generate(1, "a@b.c")
	if _, err := m.Parse(token); err == nil {
		t.Error("其他密钥签发的 Token 应拒绝")
	}
}

// ==================== 中间件测试 ====================

func TestAuthRequired(t *testing.T) {
	m := newTestManager(time.Hour)

	r := gin.New()
	r.GET("/protected", m.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "email": GetEmail(c)})
	})

	valid, _ := m.Generate(7, "user@example.com")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"合法 Token", "Bearer " + valid, http.StatusOK},
		{"无认证头", "", http.StatusUnauthorized},
		{"格式错误", valid, http.StatusUnauthorized},
		{"错误 scheme", "Basic " + valid, http.StatusUnauthorized},
		{"伪造 Token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
