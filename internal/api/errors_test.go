package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storerating/internal/entity"

	"github.com/gin-gonic/gin"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "无效的请求",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "无效的请求",
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeStoreNotFound,
			message:        "店铺不存在",
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeStoreNotFound,
			expectedMsg:    "店铺不存在",
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "服务器内部错误",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
			expectedMsg:    "服务器内部错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var body APIError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body.Code != tt.expectedCode {
				t.Fatalf("expected code %s, got %s", tt.expectedCode, body.Code)
			}
			if body.Message != tt.expectedMsg {
				t.Fatalf("expected message %s, got %s", tt.expectedMsg, body.Message)
			}
		})
	}
}

func TestValidationFailedCarriesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ValidationFailed(c, []entity.FieldError{
		{Field: "name", Message: "name must be between 20 and 60 characters"},
		{Field: "email", Message: "email must be a valid email address"},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var body struct {
		Code    string              `json:"code"`
		Details []entity.FieldError `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Code != ErrCodeValidationFailed {
		t.Fatalf("expected code %s, got %s", ErrCodeValidationFailed, body.Code)
	}
	if len(body.Details) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(body.Details))
	}
	if body.Details[0].Field != "name" {
		t.Fatalf("expected first field error for name, got %s", body.Details[0].Field)
	}
}

func TestIsTimeout(t *testing.T) {
	if !isTimeout(context.DeadlineExceeded) {
		t.Fatal("expected deadline exceeded to count as timeout")
	}
	if isTimeout(errors.New("other failure")) {
		t.Fatal("expected plain error not to count as timeout")
	}
	if isTimeout(nil) {
		t.Fatal("expected nil not to count as timeout")
	}
}
