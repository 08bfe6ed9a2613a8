package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/publish"
	"github.com/boardswallah/boards-press/app/tasks"
)

// classify maps an error to its HTTP status and a short kind label.
func classify(err error) (int, string) {
	var (
		validation *content.ValidationError
		parse      *content.GenerationParseError
		shape      *content.GenerationShapeError
		failure    *content.PublishFailure
		auth       *content.AuthorizationError
		timeout    *content.TimeoutError
		provider   *content.ProviderError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &auth):
		return http.StatusUnauthorized, "authorization"
	case errors.As(err, &parse):
		return http.StatusUnprocessableEntity, "parse"
	case errors.As(err, &shape):
		return http.StatusUnprocessableEntity, "shape"
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &provider):
		return http.StatusBadGateway, "provider"
	case errors.As(err, &failure):
		return http.StatusBadGateway, "publish"
	case errors.Is(err, publish.ErrBatchNotFound), errors.Is(err, tasks.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, content.ErrInvalidTransition):
		return http.StatusConflict, "conflict"
	case errors.Is(err, tasks.ErrQueueFull), errors.Is(err, tasks.ErrSchedulerStopped):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, content.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(c *gin.Context, err error) {
	status, _ := classify(err)
	c.JSON(status, envelope{Error: err.Error()})
}
