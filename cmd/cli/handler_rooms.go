package main

import (
	"net/http"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/history"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// listFormatsHandler returns the available export formats
func (rm *RouteManager) listFormatsHandler(w http.ResponseWriter, r *http.Request) {
	type format struct {
		Format      export.Format `json:"format"`
		ContentType string        `json:"content_type"`
	}

	formats := []format{}
	for _, e := range rm.editors.encoders.All() {
		formats = append(formats, format{Format: e.Format(), ContentType: e.ContentType()})
	}
	writeJSON(w, http.StatusOK, formats)
}

// listRoomsHandler returns all rooms with their session counts
func (rm *RouteManager) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := rm.store.ListRooms(r.Context())
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// createRoomHandler registers a room
func (rm *RouteManager) createRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectTitle string `json:"project_title"`
		Name         string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}

	room := models.Room{ProjectTitle: req.ProjectTitle, Name: req.Name}
	if err := room.Validate(); err != nil {
		rm.writeError(w, r, badRequest("%v", err))
		return
	}

	room, err := rm.store.CreateRoom(r.Context(), room)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// getRoomHandler returns one room
func (rm *RouteManager) getRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	room, err := rm.store.GetRoom(r.Context(), id)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// listSessionsHandler returns the history of a room, oldest first
func (rm *RouteManager) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	sessions, err := rm.store.ListSessions(r.Context(), id)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// roomPivotHandler compares all stored sessions of a room. ?join=id joins
// points by id instead of by name.
func (rm *RouteManager) roomPivotHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	sessions, err := rm.store.ListSessions(r.Context(), id)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	c := history.NewComparator()
	c.JoinByID = rm.cfg.Editor.JoinByID
	switch r.URL.Query().Get("join") {
	case "":
	case "id":
		c.JoinByID = true
	case "name":
		c.JoinByID = false
	default:
		rm.writeError(w, r, badRequest("join must be id or name"))
		return
	}

	writeJSON(w, http.StatusOK, c.Compare(sessions, nil))
}
