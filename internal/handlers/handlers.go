package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"excentrica/internal/auth"
	apperrors "excentrica/internal/errors"
	"excentrica/internal/logger"
	"excentrica/internal/models"
	"excentrica/internal/service"

	"github.com/gin-gonic/gin"
)

// IdempotencyStore хранит первый успешный ответ по ключу Idempotency-Key
type IdempotencyStore interface {
	GetResponse(ctx context.Context, key string) ([]byte, bool, error)
	PutResponse(ctx context.Context, key string, data []byte) error
}

type Handlers struct {
	services    *service.Services
	idempotency IdempotencyStore
}

// NewHandlers принимает nil вместо idempotency, если Redis выключен
func NewHandlers(services *service.Services, idempotency IdempotencyStore) *Handlers {
	return &Handlers{
		services:    services,
		idempotency: idempotency,
	}
}

// statusFor переводит ошибку домена в HTTP статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidStatus), errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientParticipants):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет {success:false, error}. Внутренние ошибки логируются, клиенту уходит общее сообщение.
func respondError(c *gin.Context, status int, err error, msg string) {
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(msg, "error", err)
		c.Error(err)
		c.JSON(status, models.ErrorResponse{Error: msg})
		return
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}

// principal берет пользователя, установленного middleware.JWTAuth
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
	}
	return p, ok
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// optionalInt64Query возвращает nil для отсутствующего параметра
func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return nil, false
	}
	return &v, true
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, models.OKResponse{Success: true})
}
