package handlers

import (
	"net/http"
	"strconv"

	"excentrica/internal/models"

	"github.com/gin-gonic/gin"
)

// ListActivity - GET /api/admin/activity?q=&entity_type=&actor_id=&page=&page_size=
// Поиск по журналу активности
func (h *Handlers) ListActivity(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filter := models.ActivityFilter{
		Query:      c.Query("q"),
		EntityType: c.Query("entity_type"),
		Page:       page,
		PageSize:   pageSize,
	}
	var valid bool
	if filter.ActorID, valid = optionalInt64Query(c, "actor_id"); !valid {
		return
	}

	items, source, err := h.services.Activity.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, statusFor(err), err, "Failed to list activity")
		return
	}

	c.JSON(http.StatusOK, models.ListActivityResponse{Success: true, Items: items, Source: source})
}
