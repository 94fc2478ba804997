package httpapi

import (
	"net/http"

	"github.com/schoollibrary/circulation/library"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	borrower, ok, err := borrowerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var forBorrower *library.BorrowerRef
	if ok {
		forBorrower = &borrower
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := s.store.ListNotifications(r.Context(), forBorrower, unreadOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err = s.store.MarkNotificationRead(r.Context(), notificationID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
