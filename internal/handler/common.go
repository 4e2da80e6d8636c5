package handler

import (
	"errors"
	"io"
	"net/http"

	"bakerypos/internal/logger"
	"bakerypos/internal/middleware"
	"bakerypos/internal/service"
	"bakerypos/internal/storage"
	"bakerypos/pkg/pagination"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrDeviceNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrViewOnly):
		return http.StatusForbidden
	case errors.Is(err, service.ErrShiftAlreadyActive), errors.Is(err, service.ErrAlreadyEndorsed),
		errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrImportBusy):
		return http.StatusConflict
	case errors.Is(err, service.ErrShiftNotActive), errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrUnmappedItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrCaptureRequired), errors.Is(err, service.ErrOverpayment),
		errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.LogError("handler", c.HandlerName(), c.Request.Method+" "+c.FullPath(), nil, err)
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// actorFrom builds the service actor from the session claims.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return service.Actor{}
	}
	id, _ := uuid.Parse(claims.StaffID())
	return service.Actor{StaffID: id, Name: claims.Name, Role: claims.Role, ViewOnly: claims.ViewOnly()}
}

func paged(c *gin.Context, key string, items interface{}, total int64, p pagination.Params) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		key:     items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// readUpload returns the bytes of a multipart file field.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	if fh.Size > maxUploadBytes {
		return nil, errors.New("file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}
