package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func TestFail(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{NewError(http.StatusUnprocessableEntity, "No entries in range"), 422, `{"error":"No entries in range"}`},
		{fmt.Errorf("wrapped: %w", Errorf(http.StatusBadGateway, "OpenAI %d: %s", 500, "boom")), 502, `{"error":"OpenAI 500: boom"}`},
		{errors.New("plain"), 500, `{"error":"plain"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Fail(c, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
		assert.True(t, c.IsAborted())
	}
}

func TestFixedMessages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	MethodNotAllowed(c)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Unauthorized(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}
