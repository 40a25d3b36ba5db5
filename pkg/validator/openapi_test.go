package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "rvsync/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /api/auth/login:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [email, password]
              properties:
                email:
                  type: string
                password:
                  type: string
      responses:
        '200':
          description: ok
`

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidatorFromData([]byte(schema))
	require.NoError(t, err)

	r := gin.New()
	r.Use(apperrors.ErrorHandler(), v.Middleware())
	r.POST("/api/auth/login", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/api/other", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_RejectsSchemaViolation(t *testing.T) {
	r := newEngine(t)

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"a@b.c"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeValidationFailed, resp.Error.Code)
}

func TestMiddleware_BodyStillReadableAfterValidation(t *testing.T) {
	r := newEngine(t)

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"a@b.c","password":"pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.c","password":"pw"}`, w.Body.String())
}

func TestMiddleware_UndescribedRoutePasses(t *testing.T) {
	r := newEngine(t)

	w := do(r, http.MethodGet, "/api/other", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNewOpenAPIValidatorFromData_InvalidDocument(t *testing.T) {
	_, err := NewOpenAPIValidatorFromData([]byte("openapi: 3.0.3\npaths: {}\n"))
	assert.Error(t, err)
}

func TestNewOpenAPIValidator_ShippedSchema(t *testing.T) {
	_, err := NewOpenAPIValidator("../../api/openapi.yaml")
	assert.NoError(t, err)
}
