package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeway/checkin-server/internal/email"
	"github.com/lodgeway/checkin-server/internal/storage"
)

const dateLayout = "2006-01-02"

type createReservationRequest struct {
	Reference      string `json:"reservation_number"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	RoomID         int64  `json:"room_id"`
	RoomName       string `json:"room_name"`
	NameReference  string `json:"name_reference"`
	Email          string `json:"email"`
	Telephone      string `json:"telephone"`
	NumberOfPeople int    `json:"number_of_people"`
}

// CreateReservation inserts a reservation and sends the guest a
// confirmation if an address was given. The email outcome is advisory: the
// reservation is created either way.
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reference == "" || req.StartDate == "" || req.EndDate == "" {
		respondError(w, http.StatusBadRequest, "reservation_number, start_date and end_date are required")
		return
	}
	if req.RoomID == 0 && req.RoomName == "" {
		respondError(w, http.StatusBadRequest, "room_id or room_name is required")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}

	// The room may be given by id or by name.
	var room *storage.Room
	if req.RoomID != 0 {
		room, err = h.store.GetRoom(r.Context(), req.RoomID)
	} else {
		room, err = h.store.GetRoomByName(r.Context(), req.RoomName)
	}
	if err != nil {
		log.Printf("api: resolving room for reservation %s: %v", req.Reference, err)
		respondError(w, http.StatusInternalServerError, "Failed to resolve room")
		return
	}
	if room == nil {
		respondError(w, http.StatusBadRequest, "Unknown room")
		return
	}
	if req.NumberOfPeople > room.Capacity {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Room %q holds at most %d people", room.Name, room.Capacity))
		return
	}
	req.RoomID = room.ID

	res := &storage.Reservation{
		Reference:      req.Reference,
		StartDate:      start,
		EndDate:        end,
		RoomID:         req.RoomID,
		NameReference:  req.NameReference,
		Email:          req.Email,
		Telephone:      req.Telephone,
		NumberOfPeople: req.NumberOfPeople,
	}
	if err := h.store.CreateReservation(r.Context(), res); err != nil {
		log.Printf("api: creating reservation: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create reservation")
		return
	}

	response := map[string]interface{}{
		"message":     "Reservation created successfully",
		"reservation": res,
	}

	if res.Email != "" {
		if result, ok := h.notifyGuest(r, res.ID, func(svc notifier, fields map[string]interface{}) email.DispatchResult {
			return svc.SendReservationConfirmation(r.Context(), res.Email, fields)
		}); ok {
			response["email_result"] = result
		}
	}

	respondJSON(w, http.StatusCreated, response)
}

// ListReservations returns all reservations with room names.
func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.store.ListReservations(r.Context())
	if err != nil {
		log.Printf("api: listing reservations: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}
	respondJSON(w, http.StatusOK, reservations)
}

// GetReservation returns a single reservation.
func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	res, err := h.store.GetReservation(r.Context(), id)
	if err != nil {
		log.Printf("api: loading reservation %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to load reservation")
		return
	}
	if res == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Reservation with ID %d not found", id))
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateReservationStatus transitions a reservation's status. A change to
// Approved or "Sent back to customer" triggers the matching guest
// notification; its failure never fails the status update.
func (h *Handlers) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "Missing 'status' field")
		return
	}
	if !storage.IsAllowedStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	oldStatus, res, err := h.store.UpdateReservationStatus(r.Context(), id, req.Status)
	if err != nil {
		if err == storage.ErrNotFound {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Reservation with ID %d not found", id))
			return
		}
		log.Printf("api: updating status of reservation %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update reservation status")
		return
	}

	if oldStatus != req.Status && res.Email != "" {
		switch req.Status {
		case storage.StatusApproved:
			h.notifyGuest(r, res.ID, func(svc notifier, fields map[string]interface{}) email.DispatchResult {
				return svc.SendReservationApprovalNotification(r.Context(), res.Email, fields)
			})
		case storage.StatusSentBackToCustomer:
			h.notifyGuest(r, res.ID, func(svc notifier, fields map[string]interface{}) email.DispatchResult {
				return svc.SendReservationRevisionNotification(r.Context(), res.Email, fields)
			})
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Reservation status updated successfully",
		"reservation": res,
	})
}

type updateReservationRequest struct {
	Reference      *string `json:"reservation_number"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	RoomID         *int64  `json:"room_id"`
	NameReference  *string `json:"name_reference"`
	Email          *string `json:"email"`
	Telephone      *string `json:"telephone"`
	NumberOfPeople *int    `json:"number_of_people"`
}

// UpdateReservation applies a partial update.
func (h *Handlers) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := storage.ReservationUpdate{
		Reference:      req.Reference,
		NameReference:  req.NameReference,
		Email:          req.Email,
		Telephone:      req.Telephone,
		NumberOfPeople: req.NumberOfPeople,
		RoomID:         req.RoomID,
	}
	if req.StartDate != nil {
		start, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
			return
		}
		upd.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		upd.EndDate = &end
	}

	res, err := h.store.UpdateReservation(r.Context(), id, upd)
	if err != nil {
		if err == storage.ErrNotFound {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Reservation with ID %d not found", id))
			return
		}
		log.Printf("api: updating reservation %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update reservation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Reservation updated successfully",
		"reservation": res,
	})
}

type completeCheckinRequest struct {
	ClientName     string `json:"client_name"`
	ClientSurname  string `json:"client_surname"`
	ClientEmail    string `json:"client_email"`
	ClientPhone    string `json:"client_phone"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	HasFrontImage  bool   `json:"has_front_image"`
	HasBackImage   bool   `json:"has_back_image"`
	HasSelfie      bool   `json:"has_selfie"`
}

// CompleteCheckin records that a guest finished the check-in flow and
// notifies the structure admin. The notification result is advisory.
func (h *Handlers) CompleteCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var req completeCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.store.GetReservation(r.Context(), id)
	if err != nil {
		log.Printf("api: loading reservation %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to load reservation")
		return
	}
	if res == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Reservation with ID %d not found", id))
		return
	}

	response := map[string]interface{}{
		"message": "Check-in completed successfully",
	}

	adminID, adminEmail, err := h.store.AdminForReservation(r.Context(), id)
	if err != nil {
		log.Printf("api: resolving admin for reservation %d: %v", id, err)
	} else if cfg, cfgErr := h.store.GetActiveEmailConfig(r.Context(), adminID); cfgErr != nil {
		log.Printf("api: loading admin email config for reservation %d: %v", id, cfgErr)
	} else if cfg == nil {
		log.Printf("api: no email configuration for admin of reservation %d", id)
	} else if svc, svcErr := h.newNotifier(cfg); svcErr != nil {
		log.Printf("api: building email service for reservation %d: %v", id, svcErr)
	} else {
		result := svc.SendAdminCheckinNotification(r.Context(), adminEmail, map[string]interface{}{
			"reservation_number": res.Reference,
			"guest_name":         res.NameReference,
			"start_date":         res.StartDate.Format(dateLayout),
			"end_date":           res.EndDate.Format(dateLayout),
			"room_name":          res.RoomName,
			"client_name":        req.ClientName,
			"client_surname":     req.ClientSurname,
			"client_email":       req.ClientEmail,
			"client_phone":       req.ClientPhone,
			"document_type":      req.DocumentType,
			"document_number":    req.DocumentNumber,
			"has_front_image":    req.HasFrontImage,
			"has_back_image":     req.HasBackImage,
			"has_selfie":         req.HasSelfie,
		})
		if !result.OK() {
			log.Printf("api: admin check-in notification failed: %s", result.Message)
		}
		response["email_result"] = result
	}

	respondJSON(w, http.StatusOK, response)
}

// notifyGuest loads the responsible admin's email configuration for a
// reservation and dispatches one notification through it. Every failure is
// logged and swallowed; the triggering operation has already succeeded.
func (h *Handlers) notifyGuest(r *http.Request, reservationID int64, send func(notifier, map[string]interface{}) email.DispatchResult) (email.DispatchResult, bool) {
	res, err := h.store.GetReservation(r.Context(), reservationID)
	if err != nil || res == nil {
		log.Printf("api: loading reservation %d for notification: %v", reservationID, err)
		return email.DispatchResult{}, false
	}

	adminID, _, err := h.store.AdminForReservation(r.Context(), reservationID)
	if err != nil {
		log.Printf("api: resolving admin for reservation %d: %v", reservationID, err)
		return email.DispatchResult{}, false
	}

	cfg, err := h.store.GetActiveEmailConfig(r.Context(), adminID)
	if err != nil {
		log.Printf("api: loading admin email config for reservation %d: %v", reservationID, err)
		return email.DispatchResult{}, false
	}
	if cfg == nil {
		log.Printf("api: no email configuration for admin of reservation %d", reservationID)
		return email.DispatchResult{}, false
	}

	svc, err := h.newNotifier(cfg)
	if err != nil {
		log.Printf("api: building email service for reservation %d: %v", reservationID, err)
		return email.DispatchResult{}, false
	}

	result := send(svc, map[string]interface{}{
		"reservation_number": res.Reference,
		"guest_name":         res.NameReference,
		"start_date":         res.StartDate.Format(dateLayout),
		"end_date":           res.EndDate.Format(dateLayout),
		"room_name":          res.RoomName,
	})
	if !result.OK() {
		log.Printf("api: notification for reservation %d failed: %s", reservationID, result.Message)
	}
	return result, true
}
