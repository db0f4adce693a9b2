package handler

import (
	"net/http"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/errHandler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/response"
)

type NotificationHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
}

func NewNotificationHandler(handler *NotificationHandler) *NotificationHandler {
	return &NotificationHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *NotificationHandler) HandleNotificationList(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	notifications, err := h.DB.Notification().GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Notifications fetched successfully"
	err = response.JSONOkResponse(w, notifications, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *NotificationHandler) HandleNotificationMarkRead(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	notificationID := r.PathValue("id")

	// scoping by user id means you can only mark your own notifications
	marked, err := h.DB.Notification().MarkRead(notificationID, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !marked {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Notification marked as read"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
