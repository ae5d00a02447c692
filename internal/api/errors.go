package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError writes the error body. Internal errors keep their detail out of the response
// and are attached to the gin context for the request logger instead.
func respondError(c *gin.Context, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		_ = c.Error(err)
		if status < http.StatusInternalServerError {
			resp.Details = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, resp)
}
