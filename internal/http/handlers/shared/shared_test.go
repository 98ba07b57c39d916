package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestParseLimit(t *testing.T) {
	cases := map[string]int{"": 20, "abc": 20, "-1": 20, "5": 5, "500": 100}
	for raw, want := range cases {
		if got := ParseLimit(raw); got != want {
			t.Fatalf("ParseLimit(%q) want %d got %d", raw, want, got)
		}
	}
}

func TestGetCartSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := GetCartSessionID(c); ok {
		t.Fatalf("missing session should fail")
	}
	if !strings.Contains(w.Body.String(), `"status_code":401`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set(constants.CartSessionContext, "s1")
	if id, ok := GetCartSessionID(c); !ok || id != "s1" {
		t.Fatalf("want s1 got %q", id)
	}
}

func TestRespondErrorPrefersAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	cause := response.WrapError(response.CodeBadGateway, "upstream down", errors.New("dial tcp"))
	RespondError(c, response.CodeInternal, "internal error", fmt.Errorf("begin: %w", cause))
	if !strings.Contains(w.Body.String(), `"status_code":502`) || !strings.Contains(w.Body.String(), "upstream down") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
