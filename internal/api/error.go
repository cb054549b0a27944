package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/victornm/techbridge/internal/errors"
)

// writeError converts err and writes it as {code, message, details}.
func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)

	if e.HTTPStatusCode() >= 500 {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"code", e.Code,
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

// bind decodes the JSON body into req and writes an InvalidArgument error on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err)))
		return false
	}
	return true
}
