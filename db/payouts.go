package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
)

// SetPayoutReference stores the gateway reference of a disbursement attempt.
// The status stays pending until the transfer is confirmed, synchronously or
// via a later settlement event.
func (db *CircleDB) SetPayoutReference(payoutID uuid.UUID, reference string) error {
	_, err := db.DB.Exec(`
		UPDATE group_payouts SET transaction_reference = $2 WHERE id = $1`,
		payoutID, reference)
	if err != nil {
		return fmt.Errorf("error setting payout reference: %w", err)
	}
	return nil
}

// MarkPayoutCompleted finalizes a payout after the gateway confirmed the
// disbursement. When the group's current cycle is still the closed one that
// produced the payout, the next cycle opens in the same transaction; that is
// the deferred half of the hold-on-disburse-failure policy.
func (db *CircleDB) MarkPayoutCompleted(payoutID uuid.UUID) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var cycleID uuid.UUID
	err = tx.QueryRow(`
		UPDATE group_payouts SET status = 'completed'
		WHERE id = $1 AND status = 'pending'
		RETURNING cycle_id`, payoutID).Scan(&cycleID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("payout %s is not pending", payoutID)
	}
	if err != nil {
		return fmt.Errorf("error completing payout: %w", err)
	}

	if err := db.ensureOpenCycleTx(tx, cycleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// CompletePayoutByReference finalizes a payout identified by its gateway
// reference. Used by the settlement consumer; completing an already
// completed payout is a no-op so redelivered confirmations stay idempotent.
func (db *CircleDB) CompletePayoutByReference(reference string) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var cycleID uuid.UUID
	err = tx.QueryRow(`
		UPDATE group_payouts SET status = 'completed'
		WHERE transaction_reference = $1 AND status = 'pending'
		RETURNING cycle_id`, reference).Scan(&cycleID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error completing payout by reference: %w", err)
	}

	if err := db.ensureOpenCycleTx(tx, cycleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// ensureOpenCycleTx opens the next cycle of the group owning cycleID when
// the group's current cycle is still a completed one. A no-op for groups
// that already advanced at close time.
func (db *CircleDB) ensureOpenCycleTx(tx *sql.Tx, cycleID uuid.UUID) error {
	var groupID uuid.UUID
	var currentCompleted bool
	var currentNumber int
	var freq models.CycleFrequency
	err := tx.QueryRow(`
		SELECT sg.id, cur.is_completed, cur.cycle_number, sg.cycle_frequency
		FROM group_cycles gc
		JOIN saving_groups sg ON sg.id = gc.group_id
		JOIN group_cycles cur ON cur.id = sg.current_cycle_id
		WHERE gc.id = $1
		FOR UPDATE OF cur`, cycleID).
		Scan(&groupID, &currentCompleted, &currentNumber, &freq)
	if err != nil {
		return fmt.Errorf("error reading current cycle: %w", err)
	}
	if !currentCompleted {
		return nil
	}

	_, err = db.openCycleTx(tx, groupID, currentNumber+1, time.Now().UTC(), freq)
	return err
}

// GetGroupPayouts retrieves a group's payout history newest first.
func (db *CircleDB) GetGroupPayouts(groupID uuid.UUID) ([]models.Payout, error) {
	query := `
		SELECT gp.id, gp.cycle_id, gp.user_id, gp.amount, gp.status, gp.payout_date,
		       COALESCE(gp.transaction_reference, ''), gc.cycle_number
		FROM group_payouts gp
		JOIN group_cycles gc ON gp.cycle_id = gc.id
		WHERE gc.group_id = $1
		ORDER BY gc.cycle_number DESC`
	rows, err := db.DB.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving payouts: %w", err)
	}
	return scanPayouts(rows)
}

// GetPendingPayouts retrieves payouts still awaiting disbursement, oldest
// first, capped at limit. Drives the reconcile command.
func (db *CircleDB) GetPendingPayouts(limit int) ([]models.Payout, error) {
	query := `
		SELECT gp.id, gp.cycle_id, gp.user_id, gp.amount, gp.status, gp.payout_date,
		       COALESCE(gp.transaction_reference, ''), gc.cycle_number
		FROM group_payouts gp
		JOIN group_cycles gc ON gp.cycle_id = gc.id
		WHERE gp.status = 'pending'
		ORDER BY gp.payout_date
		LIMIT $1`
	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("error retrieving pending payouts: %w", err)
	}
	return scanPayouts(rows)
}

func scanPayouts(rows *sql.Rows) ([]models.Payout, error) {
	defer rows.Close()
	var payouts []models.Payout
	for rows.Next() {
		var p models.Payout
		if err := rows.Scan(&p.ID, &p.CycleID, &p.UserID, &p.Amount, &p.Status,
			&p.PayoutDate, &p.TransactionReference, &p.CycleNumber); err != nil {
			return nil, fmt.Errorf("error scanning payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
