package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dfryer1193/esatsite/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "Internal server error"

// HandlePanics logs the recovered value and answers 500. API routes get the
// JSON envelope, pages get plain text.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}

		log.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
				Success: false,
				Message: internalErrorMessage,
			})
			return
		}

		c.String(http.StatusInternalServerError, internalErrorMessage)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
