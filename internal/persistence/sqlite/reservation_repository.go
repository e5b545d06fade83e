package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/timeblock"
)

const reservationColumns = `id, requester_id, requester_name, requester_email, requester_category,
	software, purpose, date, resource_id, group_id, status, decided_by, decided_at, reject_reason,
	created_at, updated_at`

// CreateReservations persists a whole expanded batch or nothing. The
// conflict check against live instances and the inserts run in a single
// transaction on the store's only connection, so concurrent creators for the
// same slot cannot both succeed.
func (s *Store) CreateReservations(ctx context.Context, reservations []persistence.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, candidate := range reservations {
			conflict, err := findSlotConflict(tx, candidate, false)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflict
			}
		}

		for _, reservation := range reservations {
			if err := insertReservation(tx, reservation); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetReservation retrieves a reservation by identity.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Blocks, err = s.loadBlocks(ctx, id)
	if err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter, ordered
// ascending by date, resource identity, then id.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range reservations {
		reservations[i].Blocks, err = s.loadBlocks(ctx, reservations[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

// TransitionReservation applies a compare-and-swap status change inside one
// transaction. Approval re-checks that no approved rival claims the slots.
func (s *Store) TransitionReservation(ctx context.Context, params persistence.TransitionParams) (persistence.Reservation, error) {
	var updated persistence.Reservation

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+reservationColumns+" FROM reservations WHERE id = ?", params.ID)
		reservation, err := scanReservation(row)
		if err != nil {
			return err
		}
		reservation.Blocks, err = loadBlocksTx(tx, params.ID)
		if err != nil {
			return err
		}

		allowed := false
		for _, from := range params.From {
			if reservation.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return persistence.ErrStaleStatus
		}

		if params.To == persistence.StatusApproved {
			conflict, err := findSlotConflict(tx, reservation, true)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflict
			}
		}

		reservation.Status = params.To
		reservation.UpdatedAt = params.At
		switch params.To {
		case persistence.StatusApproved, persistence.StatusRejected, persistence.StatusCancelled:
			actor := params.ActorID
			at := params.At
			reservation.DecidedBy = &actor
			reservation.DecidedAt = &at
		}
		if params.To == persistence.StatusRejected {
			reason := params.Reason
			reservation.RejectReason = &reason
		}

		_, err = tx.Exec(`
			UPDATE reservations
			SET status = ?, decided_by = ?, decided_at = ?, reject_reason = ?, updated_at = ?
			WHERE id = ?
		`,
			string(reservation.Status),
			nullString(reservation.DecidedBy),
			nullTime(reservation.DecidedAt),
			nullString(reservation.RejectReason),
			formatTime(reservation.UpdatedAt),
			reservation.ID,
		)
		if err != nil {
			return mapError(err)
		}

		updated = reservation
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return updated, nil
}

// DeleteReservation hard-deletes an instance; blocks cascade.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// findSlotConflict looks for a stored instance claiming one of the
// candidate's slots. With approvedOnly false every pending or approved
// instance blocks; with approvedOnly true only approved instances do.
func findSlotConflict(tx *sql.Tx, candidate persistence.Reservation, approvedOnly bool) (*persistence.SlotConflictError, error) {
	if len(candidate.Blocks) == 0 {
		return nil, nil
	}

	statuses := "'pending', 'approved'"
	if approvedOnly {
		statuses = "'approved'"
	}

	placeholders := make([]string, len(candidate.Blocks))
	args := []any{candidate.ResourceID, formatDate(candidate.Date), candidate.ID}
	for i, block := range candidate.Blocks {
		placeholders[i] = "?"
		args = append(args, int(block))
	}

	query := fmt.Sprintf(`
		SELECT rb.block
		FROM reservations r
		JOIN reservation_blocks rb ON rb.reservation_id = r.id
		WHERE r.resource_id = ? AND r.date = ? AND r.id <> ?
		  AND r.status IN (%s) AND rb.block IN (%s)
		ORDER BY rb.block ASC
		LIMIT 1
	`, statuses, strings.Join(placeholders, ","))

	var block int
	err := tx.QueryRow(query, args...).Scan(&block)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &persistence.SlotConflictError{
		ResourceID: candidate.ResourceID,
		Date:       timeblock.NormalizeDate(candidate.Date),
		Block:      timeblock.Block(block),
	}, nil
}

func insertReservation(tx *sql.Tx, reservation persistence.Reservation) error {
	_, err := tx.Exec(`
		INSERT INTO reservations (id, requester_id, requester_name, requester_email, requester_category,
			software, purpose, date, resource_id, group_id, status, decided_by, decided_at, reject_reason,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reservation.ID,
		reservation.RequesterID,
		reservation.RequesterName,
		reservation.RequesterEmail,
		reservation.RequesterCategory,
		reservation.Software,
		reservation.Purpose,
		formatDate(reservation.Date),
		reservation.ResourceID,
		nullString(reservation.GroupID),
		string(reservation.Status),
		nullString(reservation.DecidedBy),
		nullTime(reservation.DecidedAt),
		nullString(reservation.RejectReason),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	for _, block := range reservation.Blocks {
		if _, err := tx.Exec("INSERT INTO reservation_blocks (reservation_id, block) VALUES (?, ?)", reservation.ID, int(block)); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (s *Store) loadBlocks(ctx context.Context, reservationID string) ([]timeblock.Block, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT block FROM reservation_blocks WHERE reservation_id = ? ORDER BY block ASC", reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectBlocks(rows)
}

func loadBlocksTx(tx *sql.Tx, reservationID string) ([]timeblock.Block, error) {
	rows, err := tx.Query("SELECT block FROM reservation_blocks WHERE reservation_id = ? ORDER BY block ASC", reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectBlocks(rows)
}

func collectBlocks(rows *sql.Rows) ([]timeblock.Block, error) {
	var blocks []timeblock.Block
	for rows.Next() {
		var block int
		if err := rows.Scan(&block); err != nil {
			return nil, mapError(err)
		}
		blocks = append(blocks, timeblock.Block(block))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return blocks, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var date, status, createdAt, updatedAt string
	var groupID, decidedBy, decidedAt, rejectReason sql.NullString

	err := row.Scan(
		&reservation.ID,
		&reservation.RequesterID,
		&reservation.RequesterName,
		&reservation.RequesterEmail,
		&reservation.RequesterCategory,
		&reservation.Software,
		&reservation.Purpose,
		&date,
		&reservation.ResourceID,
		&groupID,
		&status,
		&decidedBy,
		&decidedAt,
		&rejectReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}

	reservation.Status = persistence.Status(status)
	reservation.GroupID = fromNullString(groupID)
	reservation.DecidedBy = fromNullString(decidedBy)
	reservation.RejectReason = fromNullString(rejectReason)

	if reservation.Date, err = parseDate(date); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse date: %w", err)
	}
	if reservation.DecidedAt, err = fromNullTime(decidedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse decided_at: %w", err)
	}
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return reservation, nil
}

func buildListQuery(filter persistence.ReservationFilter) (string, []any) {
	query := "SELECT " + reservationColumns + " FROM reservations"

	var conditions []string
	var args []any

	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, formatDate(*filter.Date))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.LiveOnly {
		conditions = append(conditions, "status IN ('pending', 'approved')")
	}
	if filter.GroupID != nil {
		conditions = append(conditions, "group_id = ?")
		args = append(args, *filter.GroupID)
	}
	if filter.RequesterID != nil {
		conditions = append(conditions, "requester_id = ? COLLATE NOCASE")
		args = append(args, *filter.RequesterID)
	}
	if filter.ResourceID != nil {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, *filter.ResourceID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, resource_id ASC, id ASC"
	return query, args
}
