package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Reservation statuses. Approvals and send-backs trigger guest notifications.
const (
	StatusPending          = "Pending"
	StatusApproved         = "Approved"
	StatusDeclined         = "Declined"
	StatusSentBackToCustomer = "Sent back to customer"
)

// AllowedStatuses lists the valid reservation statuses.
var AllowedStatuses = []string{StatusPending, StatusApproved, StatusDeclined, StatusSentBackToCustomer}

// IsAllowedStatus reports whether s is a known reservation status.
func IsAllowedStatus(s string) bool {
	for _, allowed := range AllowedStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// Reservation represents a room reservation. RoomName is joined from the
// room table on reads and is not a column of the reservation table.
type Reservation struct {
	ID             int64     `json:"id"`
	Reference      string    `json:"reservation_number"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	RoomID         int64     `json:"room_id"`
	RoomName       string    `json:"room_name,omitempty"`
	Status         string    `json:"status"`
	NameReference  string    `json:"name_reference"`
	Email          string    `json:"email"`
	Telephone      string    `json:"telephone"`
	NumberOfPeople int       `json:"number_of_people"`
}

// CreateReservation inserts a new reservation with status Pending.
func (s *Store) CreateReservation(ctx context.Context, r *Reservation) error {
	if r.Status == "" {
		r.Status = StatusPending
	}
	query := `INSERT INTO reservation (id_reference, start_date, end_date, id_room, status,
		name_reference, email, telephone, number_of_people)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	return s.db.QueryRowContext(ctx, query, r.Reference, r.StartDate, r.EndDate, r.RoomID,
		r.Status, r.NameReference, r.Email, r.Telephone, r.NumberOfPeople).Scan(&r.ID)
}

const reservationColumns = `r.id, r.id_reference, r.start_date, r.end_date, r.id_room,
	COALESCE(rm.name, ''), r.status, r.name_reference, r.email, r.telephone, r.number_of_people`

func scanReservation(row *sql.Row) (*Reservation, error) {
	r := &Reservation{}
	err := row.Scan(&r.ID, &r.Reference, &r.StartDate, &r.EndDate, &r.RoomID, &r.RoomName,
		&r.Status, &r.NameReference, &r.Email, &r.Telephone, &r.NumberOfPeople)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// GetReservation retrieves a reservation with its room name, or nil.
func (s *Store) GetReservation(ctx context.Context, id int64) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservation r
		LEFT JOIN room rm ON rm.id = r.id_room WHERE r.id = $1`
	return scanReservation(s.db.QueryRowContext(ctx, query, id))
}

// ListReservations retrieves all reservations ordered by start date.
func (s *Store) ListReservations(ctx context.Context) ([]*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservation r
		LEFT JOIN room rm ON rm.id = r.id_room ORDER BY r.start_date, r.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		r := &Reservation{}
		if err := rows.Scan(&r.ID, &r.Reference, &r.StartDate, &r.EndDate, &r.RoomID,
			&r.RoomName, &r.Status, &r.NameReference, &r.Email, &r.Telephone,
			&r.NumberOfPeople); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateReservationStatus sets a reservation's status and returns the
// previous status together with the updated row, so callers can decide
// whether a transition notification is due.
func (s *Store) UpdateReservationStatus(ctx context.Context, id int64, status string) (string, *Reservation, error) {
	if !IsAllowedStatus(status) {
		return "", nil, fmt.Errorf("invalid status %q", status)
	}

	current, err := s.GetReservation(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if current == nil {
		return "", nil, ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE reservation SET status = $2 WHERE id = $1`, id, status); err != nil {
		return "", nil, err
	}

	old := current.Status
	current.Status = status
	return old, current, nil
}

// ReservationUpdate carries optional field updates for a reservation.
type ReservationUpdate struct {
	Reference      *string
	StartDate      *time.Time
	EndDate        *time.Time
	NameReference  *string
	Email          *string
	Telephone      *string
	NumberOfPeople *int
	RoomID         *int64
}

// UpdateReservation applies the non-nil fields of upd to a reservation.
func (s *Store) UpdateReservation(ctx context.Context, id int64, upd ReservationUpdate) (*Reservation, error) {
	var sets []string
	var args []interface{}
	args = append(args, id)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Reference != nil {
		add("id_reference", *upd.Reference)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.EndDate != nil {
		add("end_date", *upd.EndDate)
	}
	if upd.NameReference != nil {
		add("name_reference", *upd.NameReference)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Telephone != nil {
		add("telephone", *upd.Telephone)
	}
	if upd.NumberOfPeople != nil {
		add("number_of_people", *upd.NumberOfPeople)
	}
	if upd.RoomID != nil {
		add("id_room", *upd.RoomID)
	}

	if len(sets) == 0 {
		return s.GetReservation(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE reservation SET %s WHERE id = $1`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetReservation(ctx, id)
}

// AdminForReservation resolves the structure admin responsible for a
// reservation, via the room's structure. Returns the admin's user ID and
// email, or ErrNotFound when the chain is broken.
func (s *Store) AdminForReservation(ctx context.Context, reservationID int64) (int64, string, error) {
	query := `SELECT u.id, u.email FROM users u
		JOIN admin_structure a ON a.id_user = u.id
		JOIN room rm ON rm.id_structure = a.id_structure
		JOIN reservation r ON r.id_room = rm.id
		WHERE r.id = $1`

	var userID int64
	var email string
	err := s.db.QueryRowContext(ctx, query, reservationID).Scan(&userID, &email)
	if err == sql.ErrNoRows {
		return 0, "", ErrNotFound
	}
	return userID, email, err
}
