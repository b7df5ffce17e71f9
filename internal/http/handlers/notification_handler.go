// README: In-app notification handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trafficdesk/internal/http/middleware"
	"trafficdesk/internal/modules/notify"
	"trafficdesk/internal/types"
)

type NotificationHandler struct {
	store *notify.Store
}

func NewNotificationHandler(store *notify.Store) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.store.ListByUser(c.Request.Context(), types.ID(middleware.CallerUID(c)), limit)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": items})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.store.MarkRead(c.Request.Context(), types.ID(middleware.CallerUID(c)), id); err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"read": true})
}
