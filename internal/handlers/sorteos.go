package handlers

import (
	"net/http"

	"excentrica/internal/models"

	"github.com/gin-gonic/gin"
)

// JoinSorteo - POST /api/sorteos/:id/participate
// Участие текущего пользователя в розыгрыше
func (h *Handlers) JoinSorteo(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	sorteoID, valid := idParam(c, "id")
	if !valid {
		return
	}

	var req models.JoinSorteoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	participant, err := h.services.Sorteos.JoinSorteo(c.Request.Context(), sorteoID, p.UserID, &req)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to join sorteo")
		return
	}

	c.JSON(http.StatusCreated, models.JoinSorteoResponse{Success: true, Participant: *participant})
}

// GetSorteo - GET /api/admin/sorteos/:id
func (h *Handlers) GetSorteo(c *gin.Context) {
	sorteoID, valid := idParam(c, "id")
	if !valid {
		return
	}

	sorteo, err := h.services.Sorteos.Get(c.Request.Context(), sorteoID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to get sorteo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sorteo": sorteo})
}

// ListParticipants - GET /api/admin/sorteos/:id/participants?status=&winners=true
func (h *Handlers) ListParticipants(c *gin.Context) {
	sorteoID, valid := idParam(c, "id")
	if !valid {
		return
	}

	filter := models.ParticipantFilter{WinnersOnly: c.Query("winners") == "true"}
	if raw := c.Query("status"); raw != "" {
		status := models.ParticipantStatus(raw)
		filter.Status = &status
	}

	items, err := h.services.Sorteos.ListParticipants(c.Request.Context(), sorteoID, filter)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to list participants")
		return
	}

	c.JSON(http.StatusOK, models.ListParticipantsResponse{Success: true, Items: items})
}

// ChangeSorteoStatus - PUT /api/admin/sorteos/:id/status
// Пауза, возобновление или отмена розыгрыша
func (h *Handlers) ChangeSorteoStatus(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	sorteoID, valid := idParam(c, "id")
	if !valid {
		return
	}

	var req models.ChangeSorteoStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sorteo, err := h.services.Sorteos.ChangeStatus(c.Request.Context(), sorteoID, req.Status, p.UserID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to change sorteo status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sorteo": sorteo})
}

// SelectWinners - POST /api/admin/sorteos/:id/select-winners
// Провести розыгрыш
func (h *Handlers) SelectWinners(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	sorteoID, valid := idParam(c, "id")
	if !valid {
		return
	}

	response, err := h.services.Sorteos.SelectWinners(c.Request.Context(), sorteoID, p.UserID)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to select winners")
		return
	}

	response.Success = true
	c.JSON(http.StatusOK, response)
}

// ClaimPrize - PUT /api/admin/sorteos/participants/:id/claim
func (h *Handlers) ClaimPrize(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	participantID, valid := idParam(c, "id")
	if !valid {
		return
	}

	if _, err := h.services.Sorteos.MarkPrizeClaimed(c.Request.Context(), participantID, p.UserID); err != nil {
		respondError(c, statusFor(err), err, "Failed to claim prize")
		return
	}

	respondOK(c)
}

// Disqualify - PUT /api/admin/sorteos/participants/:id/disqualify
func (h *Handlers) Disqualify(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	participantID, valid := idParam(c, "id")
	if !valid {
		return
	}

	// тело необязательно
	var req models.DisqualifyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	if _, err := h.services.Sorteos.DisqualifyParticipant(c.Request.Context(), participantID, req.Notes, p.UserID); err != nil {
		respondError(c, statusFor(err), err, "Failed to disqualify participant")
		return
	}

	respondOK(c)
}
