package middleware

import (
	"errors"
	"net/http"
	"os"

	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
)

// ErrorHandler is the single process-wide renderer for errors recorded
// on the context. Operational errors keep their status and message;
// anything else becomes a generic 500. Development mode exposes the
// underlying detail and stack, production only {status, message}.
func ErrorHandler() gin.HandlerFunc {
	dev := os.Getenv("APP_ENV") == "development"
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *utils.APIError
		if !errors.As(err, &apiErr) {
			apiErr = utils.NewAPIError("Something went wrong!", http.StatusInternalServerError)
			if dev {
				apiErr.Message = err.Error()
			}
		}

		body := gin.H{
			"status":  apiErr.Status,
			"message": apiErr.Message,
		}
		if apiErr.Errors != nil {
			body["errors"] = apiErr.Errors
		}
		if dev {
			body["stack"] = apiErr.Stack()
		}

		c.JSON(apiErr.StatusCode, body)
	}
}
