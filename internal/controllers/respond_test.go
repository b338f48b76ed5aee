package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/apperr"
	"postboard/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc, method, target, body string) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.Handle(method, "/x/:id", h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestFail_MapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("bad", map[string]string{"title": "required"}), http.StatusUnprocessableEntity, "bad"},
		{"authentication", apperr.Authentication("Unauthenticated."), http.StatusUnauthorized, "Unauthenticated."},
		{"not found", apperr.NotFound("Post not found."), http.StatusNotFound, "Post not found."},
		{"storage", apperr.Storage("list posts", errors.New("conn refused")), http.StatusInternalServerError, "Server Error"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "Server Error"},
	}

	r := responder{log: logging.Nop{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serve(t, func(c *gin.Context) { r.fail(c, tt.err) }, http.MethodGet, "/x/1", "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.msg, body["message"])
		})
	}
}

func TestFail_ValidationFields(t *testing.T) {
	r := responder{log: logging.Nop{}}
	_, body := serve(t, func(c *gin.Context) {
		r.fail(c, apperr.Validation("bad", map[string]string{"title": "The title field is required."}))
	}, http.MethodGet, "/x/1", "")

	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The title field is required.", fields["title"])
}

func TestFail_ExposeInternal(t *testing.T) {
	r := responder{log: logging.Nop{}, exposeInternal: true}
	_, body := serve(t, func(c *gin.Context) {
		r.fail(c, apperr.Storage("list posts", errors.New("conn refused")))
	}, http.MethodGet, "/x/1", "")

	assert.Equal(t, "list posts: conn refused", body["message"])
}

func TestBind_MalformedJSON(t *testing.T) {
	r := responder{log: logging.Nop{}}
	status, body := serve(t, func(c *gin.Context) {
		var dst struct{ Title string }
		if r.bind(c, &dst) {
			r.ok(c, http.StatusOK, nil)
		}
	}, http.MethodPost, "/x/1", "{not json")

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "error", body["status"])
}

func TestIDParam(t *testing.T) {
	r := responder{log: logging.Nop{}}
	h := func(c *gin.Context) {
		id, ok := r.idParam(c, "id", "Post not found.")
		if ok {
			r.ok(c, http.StatusOK, gin.H{"id": id})
		}
	}

	status, body := serve(t, h, http.MethodGet, "/x/42", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 42, body["id"])
	assert.Equal(t, "ok", body["status"])

	for _, bad := range []string{"abc", "0", "-1", "1.5"} {
		status, body := serve(t, h, http.MethodGet, "/x/"+bad, "")
		assert.Equal(t, http.StatusNotFound, status, bad)
		assert.Equal(t, "Post not found.", body["message"])
	}
}
