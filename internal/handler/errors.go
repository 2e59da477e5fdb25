package handler

import (
	"net/http"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps business errors onto HTTP: validation failures return 400
// with the full violation list, missing records 404, state and referential
// conflicts 409, anything else 500.
func writeError(c *gin.Context, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, response.ValidationErrors(http.StatusBadRequest, ve.Violations))
		return
	}
	if apperr.IsNotFound(err) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	if apperr.IsState(err) || apperr.IsReferential(err) {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}
