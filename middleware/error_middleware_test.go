package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorRouter(fail gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", fail)
	return r
}

func getBoom(r *gin.Engine) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorHandlerRendersOperationalError(t *testing.T) {
	r := errorRouter(func(c *gin.Context) {
		_ = c.Error(utils.NewAPIError("No category for this id 123", http.StatusNotFound))
		c.Abort()
	})

	w, body := getBoom(r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "No category for this id 123", body["message"])
	assert.NotContains(t, body, "stack")
}

func TestErrorHandlerMasksUnknownErrors(t *testing.T) {
	r := errorRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("driver: connection refused"))
		c.Abort()
	})

	w, body := getBoom(r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Something went wrong!", body["message"])
}

func TestErrorHandlerExposesDetailInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	r := errorRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("driver: connection refused"))
		c.Abort()
	})

	w, body := getBoom(r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "driver: connection refused", body["message"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandlerRendersValidationErrors(t *testing.T) {
	r := errorRouter(func(c *gin.Context) {
		_ = c.Error(utils.NewValidationError([]utils.FieldError{
			{Field: "email", Message: "email must be a valid email address"},
		}))
		c.Abort()
	})

	w, body := getBoom(r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "email", first["field"])
}

func TestErrorHandlerLeavesWrittenResponsesAlone(t *testing.T) {
	r := errorRouter(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		_ = c.Error(errors.New("late error"))
	})

	w, body := getBoom(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body["status"])
}
