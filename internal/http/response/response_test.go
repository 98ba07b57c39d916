package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(RequestIDKey, "req-1")

	Error(c, CodeBadRequest, "bad")
	if w.Code != http.StatusOK {
		t.Fatalf("http status should stay 200, got %d", w.Code)
	}
	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StatusCode != CodeBadRequest || body.Msg != "bad" || body.Data[RequestIDKey] != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(CodeInternal, "failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("app error should unwrap to cause")
	}
	if err.Error() != "[500] failed: boom" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	wrapped := fmt.Errorf("checkout: %w", err)
	got, ok := AsAppError(wrapped)
	if !ok || got.Code != CodeInternal {
		t.Fatalf("expected app error in chain, got %v", wrapped)
	}
	if _, ok := AsAppError(cause); ok {
		t.Fatalf("plain error should not be an app error")
	}
}
