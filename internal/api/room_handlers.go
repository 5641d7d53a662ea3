package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeway/checkin-server/internal/storage"
)

// CreateRoom adds a room to the caller's structure.
func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room storage.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if room.Name == "" {
		respondError(w, http.StatusBadRequest, "room name is required")
		return
	}

	if err := h.store.CreateRoom(r.Context(), &room); err != nil {
		log.Printf("api: creating room: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

// ListRooms returns all rooms.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		log.Printf("api: listing rooms: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list rooms")
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

// GetRoom returns a single room.
func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	room, err := h.store.GetRoom(r.Context(), id)
	if err != nil {
		log.Printf("api: loading room %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}
	if room == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Room with ID %d not found", id))
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// UpdateRoom changes a room's name or capacity.
func (h *Handlers) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var room storage.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room.ID = id

	if err := h.store.UpdateRoom(r.Context(), &room); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Room with ID %d not found", id))
			return
		}
		log.Printf("api: updating room %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update room")
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// DeleteRoom removes a room.
func (h *Handlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	if err := h.store.DeleteRoom(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Room with ID %d not found", id))
			return
		}
		log.Printf("api: deleting room %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete room")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}
