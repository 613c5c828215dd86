package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cham-tech/SmartSave/internal/rotation"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RecipientPicker chooses one payout recipient from a candidate pool.
type RecipientPicker interface {
	Pick(candidates []uuid.UUID) (uuid.UUID, error)
}

// SettleContribution records a contribution attempt and, when it is the one
// that satisfies the cycle, closes the cycle in the same transaction:
// completion evaluation, recipient selection, payout creation and opening of
// the next cycle execute as a single atomic unit. The cycle row is locked
// with FOR UPDATE so two near-simultaneous final contributions serialize;
// the version check on the close update is the backstop that guarantees at
// most one writer performs the transition. A settlement that finds the cycle
// already closed keeps its contribution row and returns ErrCycleClosed.
//
// Gateway calls never happen here; the caller talks to the gateway first and
// passes in the resulting status.
//
// openNext controls whether the next cycle opens in the same transaction
// that closes the current one. With openNext false the group stays without
// an open cycle until the payout is confirmed, at which point
// MarkPayoutCompleted opens the next one.
func (db *CircleDB) SettleContribution(contrib *models.Contribution, picker RecipientPicker, openNext bool) (*models.CycleCloseResult, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if contrib.ID == uuid.Nil {
		contrib.ID = uuid.New()
	}
	contrib.ContributionDate = time.Now().UTC()

	_, err = tx.Exec(`
		INSERT INTO group_contributions (id, cycle_id, user_id, amount, transaction_reference, status, contribution_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		contrib.ID, contrib.CycleID, contrib.UserID, contrib.Amount,
		contrib.TransactionReference, contrib.Status, contrib.ContributionDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Partial unique index: a completed contribution for this
			// (cycle, user) landed between the pre-check and now.
			return nil, models.ErrDuplicateContribution
		}
		return nil, fmt.Errorf("error inserting contribution: %w", err)
	}

	// Failed attempts are recorded for audit and never advance the cycle.
	if contrib.Status != models.ContributionCompleted {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("error committing transaction: %w", err)
		}
		return &models.CycleCloseResult{}, nil
	}

	// Serialization point: lock the cycle row before evaluating completion.
	var groupID uuid.UUID
	var cycleNumber, version int
	var isCompleted bool
	err = tx.QueryRow(`
		SELECT group_id, cycle_number, is_completed, version
		FROM group_cycles WHERE id = $1 FOR UPDATE`, contrib.CycleID).
		Scan(&groupID, &cycleNumber, &isCompleted, &version)
	if err != nil {
		return nil, fmt.Errorf("error locking cycle: %w", err)
	}
	if isCompleted {
		// The cycle closed while the gateway call was in flight. Keep the
		// contribution on record for reconciliation and surface the conflict
		// so the member learns the charge had no effect on this cycle.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("error committing transaction: %w", err)
		}
		db.Log.Warn().Str("cycle_id", contrib.CycleID.String()).
			Msg("Contribution settled against an already-closed cycle")
		return nil, models.ErrCycleClosed
	}

	var activeMembers, completedContributions int
	err = tx.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = $1 AND gm.is_active = TRUE),
			(SELECT COUNT(*) FROM group_contributions c WHERE c.cycle_id = $2 AND c.status = 'completed')`,
		groupID, contrib.CycleID).Scan(&activeMembers, &completedContributions)
	if err != nil {
		return nil, fmt.Errorf("error counting contributions: %w", err)
	}

	// Equality, not a threshold: members who joined after the cycle opened
	// still count towards completion.
	if activeMembers == 0 || completedContributions != activeMembers {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("error committing transaction: %w", err)
		}
		return &models.CycleCloseResult{}, nil
	}

	res, err := tx.Exec(`
		UPDATE group_cycles SET is_completed = TRUE, version = version + 1
		WHERE id = $1 AND version = $2 AND is_completed = FALSE`,
		contrib.CycleID, version)
	if err != nil {
		return nil, fmt.Errorf("error closing cycle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error reading close result: %w", err)
	}
	if affected == 0 {
		// Lost the close to a concurrent writer; keep the contribution only.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("error committing transaction: %w", err)
		}
		return &models.CycleCloseResult{}, nil
	}

	payout, err := db.createPayoutTx(tx, groupID, contrib.CycleID, cycleNumber, picker)
	if err != nil {
		return nil, err
	}

	var nextCycle *models.Cycle
	if openNext {
		var freq models.CycleFrequency
		if err := tx.QueryRow(`SELECT cycle_frequency FROM saving_groups WHERE id = $1`, groupID).Scan(&freq); err != nil {
			return nil, fmt.Errorf("error reading group frequency: %w", err)
		}

		nextCycle, err = db.openCycleTx(tx, groupID, cycleNumber+1, time.Now().UTC(), freq)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return &models.CycleCloseResult{Closed: true, Payout: payout, NextCycle: nextCycle}, nil
}

// createPayoutTx selects the recipient under the rotation rule and inserts
// the pending payout for a cycle being closed.
func (db *CircleDB) createPayoutTx(tx *sql.Tx, groupID, cycleID uuid.UUID, cycleNumber int, picker RecipientPicker) (*models.Payout, error) {
	rows, err := tx.Query(`
		SELECT user_id FROM group_members WHERE group_id = $1 AND is_active = TRUE`, groupID)
	if err != nil {
		return nil, fmt.Errorf("error selecting members: %w", err)
	}
	active, err := scanUserIDs(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(`
		SELECT DISTINCT gp.user_id
		FROM group_payouts gp
		JOIN group_cycles gc ON gp.cycle_id = gc.id
		WHERE gc.group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("error selecting paid members: %w", err)
	}
	paidIDs, err := scanUserIDs(rows)
	if err != nil {
		return nil, err
	}
	paid := make(map[uuid.UUID]bool, len(paidIDs))
	for _, id := range paidIDs {
		paid[id] = true
	}

	recipient, err := picker.Pick(rotation.EligiblePool(active, paid))
	if err != nil {
		return nil, err
	}

	var total float64
	err = tx.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM group_contributions
		WHERE cycle_id = $1 AND status = 'completed'`, cycleID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("error summing contributions: %w", err)
	}

	payout := &models.Payout{
		ID:          uuid.New(),
		CycleID:     cycleID,
		UserID:      recipient,
		Amount:      total,
		Status:      models.PayoutPending,
		PayoutDate:  time.Now().UTC(),
		CycleNumber: cycleNumber,
	}
	err = db.execQuery(tx, `
		INSERT INTO group_payouts (id, cycle_id, user_id, amount, status, payout_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payout.ID, payout.CycleID, payout.UserID, payout.Amount, payout.Status, payout.PayoutDate)
	if err != nil {
		return nil, fmt.Errorf("error inserting payout: %w", err)
	}
	return payout, nil
}

func scanUserIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasCompletedContribution checks for an existing completed contribution by
// the user in the cycle.
func (db *CircleDB) HasCompletedContribution(cycleID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM group_contributions
		WHERE cycle_id = $1 AND user_id = $2 AND status = 'completed')`
	var exists bool
	err := db.DB.QueryRow(query, cycleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking contribution: %w", err)
	}
	return exists, nil
}

// GetContributions retrieves a cycle's contribution history, failed attempts
// included, newest first.
func (db *CircleDB) GetContributions(cycleID uuid.UUID) ([]models.Contribution, error) {
	query := `
		SELECT gc.id, gc.cycle_id, gc.user_id, gc.amount, gc.transaction_reference,
		       gc.status, gc.contribution_date, u.first_name, u.last_name
		FROM group_contributions gc
		JOIN users u ON gc.user_id = u.id
		WHERE gc.cycle_id = $1
		ORDER BY gc.contribution_date DESC`
	rows, err := db.DB.Query(query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving contributions: %w", err)
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ID, &c.CycleID, &c.UserID, &c.Amount, &c.TransactionReference,
			&c.Status, &c.ContributionDate, &c.FirstName, &c.LastName); err != nil {
			return nil, fmt.Errorf("error scanning contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}
