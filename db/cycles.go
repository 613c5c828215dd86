package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
)

// openCycleTx inserts a new open cycle and repoints the group's
// current_cycle_id at it. Both writes stay inside the caller's transaction.
func (db *CircleDB) openCycleTx(tx *sql.Tx, groupID uuid.UUID, number int, start time.Time, freq models.CycleFrequency) (*models.Cycle, error) {
	cycle := &models.Cycle{
		ID:          uuid.New(),
		GroupID:     groupID,
		CycleNumber: number,
		StartDate:   start,
		EndDate:     freq.NextEndDate(start),
	}

	err := db.execQuery(tx, `
		INSERT INTO group_cycles (id, group_id, cycle_number, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)`,
		cycle.ID, cycle.GroupID, cycle.CycleNumber, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return nil, fmt.Errorf("error inserting cycle: %w", err)
	}

	err = db.execQuery(tx, `UPDATE saving_groups SET current_cycle_id = $2 WHERE id = $1`,
		groupID, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating current cycle: %w", err)
	}

	return cycle, nil
}

// GetCycle retrieves a single cycle.
func (db *CircleDB) GetCycle(cycleID uuid.UUID) (*models.Cycle, error) {
	query := `SELECT id, group_id, cycle_number, start_date, end_date, is_completed, version
	          FROM group_cycles WHERE id = $1`
	row := db.DB.QueryRow(query, cycleID)

	var c models.Cycle
	if err := row.Scan(&c.ID, &c.GroupID, &c.CycleNumber, &c.StartDate, &c.EndDate, &c.IsCompleted, &c.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning cycle: %w", err)
	}
	return &c, nil
}

// GetCurrentCycleProgress retrieves a group's open cycle together with the
// member and completed-contribution counts driving completion evaluation.
func (db *CircleDB) GetCurrentCycleProgress(groupID uuid.UUID) (*models.CycleProgress, error) {
	query := `
		SELECT gc.id, gc.group_id, gc.cycle_number, gc.start_date, gc.end_date, gc.is_completed, gc.version,
		       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = gc.group_id AND gm.is_active = TRUE),
		       (SELECT COUNT(*) FROM group_contributions c WHERE c.cycle_id = gc.id AND c.status = 'completed')
		FROM group_cycles gc
		JOIN saving_groups sg ON sg.current_cycle_id = gc.id
		WHERE sg.id = $1`
	row := db.DB.QueryRow(query, groupID)

	var p models.CycleProgress
	if err := row.Scan(&p.Cycle.ID, &p.Cycle.GroupID, &p.Cycle.CycleNumber, &p.Cycle.StartDate,
		&p.Cycle.EndDate, &p.Cycle.IsCompleted, &p.Cycle.Version,
		&p.ActiveMembers, &p.CompletedContributions); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning cycle progress: %w", err)
	}
	return &p, nil
}

// GetCompletedCycles retrieves a group's closed cycles newest first, joined
// with the payout each produced.
func (db *CircleDB) GetCompletedCycles(groupID uuid.UUID) ([]models.CompletedCycle, error) {
	query := `
		SELECT gc.id, gc.group_id, gc.cycle_number, gc.start_date, gc.end_date, gc.is_completed, gc.version,
		       gp.user_id, u.first_name, u.last_name, gp.amount, gp.status
		FROM group_cycles gc
		JOIN group_payouts gp ON gp.cycle_id = gc.id
		JOIN users u ON gp.user_id = u.id
		WHERE gc.group_id = $1 AND gc.is_completed = TRUE
		ORDER BY gc.cycle_number DESC`
	rows, err := db.DB.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving completed cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.CompletedCycle
	for rows.Next() {
		var c models.CompletedCycle
		if err := rows.Scan(&c.ID, &c.GroupID, &c.CycleNumber, &c.StartDate, &c.EndDate, &c.IsCompleted, &c.Version,
			&c.RecipientID, &c.RecipientFirstName, &c.RecipientLastName, &c.PayoutAmount, &c.PayoutStatus); err != nil {
			return nil, fmt.Errorf("error scanning completed cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}
