package http

import (
	"net/http"

	"github.com/Strob0t/RentMatch/internal/domain/notification"
)

type notificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
}

type countResponse struct {
	Count int `json:"count"`
}

type markAllResponse struct {
	Updated int64 `json:"updated"`
}

// ListNotifications handles GET /api/v1/notifications.
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt64(r, "limit")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	unreadOnly, err := queryBool(r, "unread_only")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	list, err := h.Notifications.List(r.Context(), caller(r), notification.ListOptions{
		Limit:      int(min(limit, notification.MaxListLimit)),
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: list})
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.UnreadCount(r.Context(), caller(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// MarkNotificationRead handles POST /api/v1/notifications/{id}/read.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.MarkRead(r.Context(), caller(r), urlParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all.
func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllRead(r.Context(), caller(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markAllResponse{Updated: n})
}
