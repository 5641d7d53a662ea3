package storage

import (
	"context"
	"database/sql"
)

// Room represents a bookable room within a structure.
type Room struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	StructureID int64  `json:"id_structure"`
}

// CreateRoom inserts a new room.
func (s *Store) CreateRoom(ctx context.Context, r *Room) error {
	query := `INSERT INTO room (name, capacity, id_structure) VALUES ($1, $2, $3) RETURNING id`
	return s.db.QueryRowContext(ctx, query, r.Name, r.Capacity, r.StructureID).Scan(&r.ID)
}

// GetRoom retrieves a room by ID, or nil.
func (s *Store) GetRoom(ctx context.Context, id int64) (*Room, error) {
	r := &Room{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, capacity, id_structure FROM room WHERE id = $1`, id).
		Scan(&r.ID, &r.Name, &r.Capacity, &r.StructureID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// GetRoomByName retrieves a room by name, or nil.
func (s *Store) GetRoomByName(ctx context.Context, name string) (*Room, error) {
	r := &Room{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, capacity, id_structure FROM room WHERE name = $1`, name).
		Scan(&r.ID, &r.Name, &r.Capacity, &r.StructureID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRooms retrieves all rooms ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]*Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, capacity, id_structure FROM room ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Room
	for rows.Next() {
		r := &Room{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.StructureID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRoom updates a room's name and capacity.
func (s *Store) UpdateRoom(ctx context.Context, r *Room) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE room SET name = $2, capacity = $3 WHERE id = $1`, r.ID, r.Name, r.Capacity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoom removes a room.
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM room WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
