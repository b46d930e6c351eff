package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/application"
	"github.com/oksasatya/smartagricare-api/internal/infrastructure/weather"
	"github.com/oksasatya/smartagricare-api/pkg/response"
	"github.com/oksasatya/smartagricare-api/pkg/validation"
)

// writeError maps service errors onto the failure envelope. Anything not
// recognised is logged and reported as a 500 without internals.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, verr.Error(), verr.Fields)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, application.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, application.ErrUnauthorized):
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, application.ErrInvalidResetToken):
		response.Error[any](c, http.StatusBadRequest, application.ErrInvalidResetToken.Error(), nil)
	case errors.Is(err, application.ErrConflict):
		response.Error[any](c, http.StatusConflict, application.ErrConflict.Error(), nil)
	case errors.Is(err, application.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, weather.ErrInvalidCoordinates):
		response.Error[any](c, http.StatusBadRequest, weather.ErrInvalidCoordinates.Error(), nil)
	case errors.Is(err, weather.ErrUpstream):
		response.Error[any](c, http.StatusBadGateway, weather.ErrUpstream.Error(), nil)
	default:
		if logger != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func writeBindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}
