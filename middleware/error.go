package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/spdeepak/crm-session-guard/internal/error"
)

func ErrorMiddleware(c *gin.Context) {
	defer func() {
		if err := recover(); err != nil {
			log.Ctx(c).Error().Any("error", err).Str("path", c.Request.URL.Path).Msg("Panic occurred")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				httperror.NewWithMetadata(httperror.UndefinedErrorCode, fmt.Sprintf("%v", err)))
			return
		}
		if len(c.Errors) == 0 {
			return
		}
		// The last error decides the response; earlier ones are only logged.
		for _, er := range c.Errors {
			var e httperror.HttpError
			if errors.As(er.Err, &e) && e.StatusCode >= 400 && e.StatusCode < 500 {
				logWarning(c, er)
			} else {
				logError(c, er)
			}
		}
		if c.Writer.Written() {
			return
		}
		var e httperror.HttpError
		if errors.As(c.Errors.Last().Err, &e) {
			c.AbortWithStatusJSON(e.StatusCode, e)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, httperror.New(httperror.UndefinedErrorCode))
	}()
	c.Next()
}

func logError(c *gin.Context, err *gin.Error) {
	log.Ctx(c).Error().
		Any("error", err).
		Str("path", c.Request.URL.Path).
		Send()
}

func logWarning(c *gin.Context, err *gin.Error) {
	log.Ctx(c).Warn().
		Any("error", err).
		Str("path", c.Request.URL.Path).
		Send()
}
