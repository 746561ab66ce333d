package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"excentrica/internal/logger"
	"excentrica/internal/models"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// Register - POST /api/events/:id/register
// Записать текущего пользователя на событие
func (h *Handlers) Register(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	eventID, valid := idParam(c, "id")
	if !valid {
		return
	}

	ctx := c.Request.Context()
	log := logger.WithContext(ctx)

	var cacheKey string
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" && h.idempotency != nil {
		cacheKey = fmt.Sprintf("register:%d:%d:%s", p.UserID, eventID, key)
		stored, found, err := h.idempotency.GetResponse(ctx, cacheKey)
		if err != nil {
			log.Warn("Idempotency lookup failed", "error", err)
		} else if found {
			log.Info("Replaying idempotent registration", "event_id", eventID)
			c.Data(http.StatusCreated, "application/json; charset=utf-8", stored)
			return
		}
	}

	reg, err := h.services.Registrations.Register(ctx, eventID, p.UserID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to register")
		return
	}

	body, err := json.Marshal(models.RegisterResponse{
		Success:          true,
		ID:               reg.ID,
		RegistrationCode: reg.RegistrationCode,
		Status:           reg.Status,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err, "Failed to encode response")
		return
	}

	if cacheKey != "" {
		if err := h.idempotency.PutResponse(ctx, cacheKey, body); err != nil {
			log.Warn("Failed to store idempotent response", "error", err)
		}
	}

	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// Unregister - DELETE /api/events/:id/register
// Отменить свою регистрацию
func (h *Handlers) Unregister(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	eventID, valid := idParam(c, "id")
	if !valid {
		return
	}

	if err := h.services.Registrations.Unregister(c.Request.Context(), eventID, p.UserID); err != nil {
		respondError(c, statusFor(err), err, "Failed to unregister")
		return
	}

	respondOK(c)
}

// ListMyRegistrations - GET /api/user/events
func (h *Handlers) ListMyRegistrations(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}

	items, err := h.services.Registrations.ListMine(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to list registrations")
		return
	}

	c.JSON(http.StatusOK, models.MyRegistrationsResponse{Success: true, Items: items})
}

// ListRegistrations - GET /api/admin/event-registrations
// Список регистраций с фильтрами event_id, user_id, status и пагинацией
func (h *Handlers) ListRegistrations(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "page must be an integer")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		badRequest(c, "page_size must be an integer")
		return
	}

	filter := models.RegistrationFilter{Page: page, PageSize: pageSize}

	var valid bool
	if filter.EventID, valid = optionalInt64Query(c, "event_id"); !valid {
		return
	}
	if filter.UserID, valid = optionalInt64Query(c, "user_id"); !valid {
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := models.RegistrationStatus(raw)
		filter.Status = &status
	}

	response, err := h.services.Registrations.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to list registrations")
		return
	}

	response.Success = true
	c.JSON(http.StatusOK, response)
}

// UpdateRegistrationStatus - PUT /api/admin/event-registrations/:id
// Подтвердить, отклонить или вернуть в pending
func (h *Handlers) UpdateRegistrationStatus(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, valid := idParam(c, "id")
	if !valid {
		return
	}

	var req models.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if _, err := h.services.Approvals.UpdateStatus(c.Request.Context(), id, &req, p.UserID); err != nil {
		status := statusFor(err)
		// на этом эндпоинте недопустимый переход - ошибка запроса
		if status == http.StatusConflict {
			status = http.StatusBadRequest
		}
		respondError(c, status, err, "Failed to update registration")
		return
	}

	respondOK(c)
}

// DeleteRegistration - DELETE /api/admin/event-registrations/:id
func (h *Handlers) DeleteRegistration(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, valid := idParam(c, "id")
	if !valid {
		return
	}

	if err := h.services.Approvals.Delete(c.Request.Context(), id, p.UserID); err != nil {
		respondError(c, statusFor(err), err, "Failed to delete registration")
		return
	}

	respondOK(c)
}

// VerifyCode - GET /api/admin/event-registrations/verify/:code
// Проверка кода на входе. Неизвестный код - не ошибка, а valid=false.
func (h *Handlers) VerifyCode(c *gin.Context) {
	response, err := h.services.Registrations.VerifyCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err, "Failed to verify code")
		return
	}

	response.Success = true
	c.JSON(http.StatusOK, response)
}

// RegistrationStats - GET /api/admin/events/:id/registrations/stats
func (h *Handlers) RegistrationStats(c *gin.Context) {
	eventID, valid := idParam(c, "id")
	if !valid {
		return
	}

	stats, err := h.services.Registrations.Stats(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to load registration stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
