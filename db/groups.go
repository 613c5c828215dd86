package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CreateGroup inserts a new group, adds the creator as its first active
// member and opens cycle #1, all in one transaction.
func (db *CircleDB) CreateGroup(req *models.GroupRequest, creator uuid.UUID) (*models.Group, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	group := &models.Group{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		AmountPerCycle: req.AmountPerCycle,
		CycleFrequency: req.CycleFrequency,
		CreatedBy:      creator,
		CreatedAt:      time.Now().UTC(),
	}

	err = db.execQuery(tx, `
		INSERT INTO saving_groups (id, name, description, amount_per_cycle, cycle_frequency, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		group.ID, group.Name, group.Description, group.AmountPerCycle,
		group.CycleFrequency, group.CreatedBy, group.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting group: %w", err)
	}

	// Creator joins immediately
	err = db.execQuery(tx, `
		INSERT INTO group_members (id, group_id, user_id) VALUES ($1, $2, $3)`,
		uuid.New(), group.ID, creator)
	if err != nil {
		return nil, fmt.Errorf("error inserting creator membership: %w", err)
	}

	cycle, err := db.openCycleTx(tx, group.ID, 1, time.Now().UTC(), group.CycleFrequency)
	if err != nil {
		return nil, err
	}
	group.CurrentCycleID = cycle.ID
	group.MemberCount = 1

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}
	return group, nil
}

// GetGroups retrieves all groups with their live active member counts.
func (db *CircleDB) GetGroups() ([]models.Group, error) {
	query := `
		SELECT sg.id, sg.name, sg.description, sg.amount_per_cycle, sg.cycle_frequency,
		       sg.created_by, sg.created_at, COALESCE(sg.current_cycle_id, '00000000-0000-0000-0000-000000000000'),
		       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = sg.id AND gm.is_active = TRUE) AS member_count
		FROM saving_groups sg
		ORDER BY sg.created_at DESC`
	return db.scanGroups(db.DB.Query(query))
}

// GetUserGroups retrieves the groups a user is an active member of.
func (db *CircleDB) GetUserGroups(userID uuid.UUID) ([]models.Group, error) {
	query := `
		SELECT sg.id, sg.name, sg.description, sg.amount_per_cycle, sg.cycle_frequency,
		       sg.created_by, sg.created_at, COALESCE(sg.current_cycle_id, '00000000-0000-0000-0000-000000000000'),
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = sg.id AND m.is_active = TRUE) AS member_count
		FROM saving_groups sg
		JOIN group_members gm ON sg.id = gm.group_id
		WHERE gm.user_id = $1 AND gm.is_active = TRUE
		ORDER BY sg.created_at DESC`
	return db.scanGroups(db.DB.Query(query, userID))
}

func (db *CircleDB) scanGroups(rows *sql.Rows, err error) ([]models.Group, error) {
	if err != nil {
		return nil, fmt.Errorf("error retrieving groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.AmountPerCycle, &g.CycleFrequency,
			&g.CreatedBy, &g.CreatedAt, &g.CurrentCycleID, &g.MemberCount); err != nil {
			return nil, fmt.Errorf("error scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup retrieves a single group.
func (db *CircleDB) GetGroup(groupID uuid.UUID) (*models.Group, error) {
	query := `
		SELECT sg.id, sg.name, sg.description, sg.amount_per_cycle, sg.cycle_frequency,
		       sg.created_by, sg.created_at, COALESCE(sg.current_cycle_id, '00000000-0000-0000-0000-000000000000'),
		       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = sg.id AND gm.is_active = TRUE) AS member_count
		FROM saving_groups sg
		WHERE sg.id = $1`
	row := db.DB.QueryRow(query, groupID)

	var g models.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.AmountPerCycle, &g.CycleFrequency,
		&g.CreatedBy, &g.CreatedAt, &g.CurrentCycleID, &g.MemberCount); err != nil {
		if err == sql.ErrNoRows {
			// Group does not exist, return nil group and nil error
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning group: %w", err)
	}
	return &g, nil
}

// JoinGroup adds a user to a group as an active member. An inactive
// membership left over from leaving is reactivated rather than duplicated.
func (db *CircleDB) JoinGroup(groupID, userID uuid.UUID) (*models.Membership, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID uuid.UUID
	var isActive bool
	err = tx.QueryRow(`
		SELECT id, is_active FROM group_members
		WHERE group_id = $1 AND user_id = $2
		ORDER BY joined_at DESC LIMIT 1`, groupID, userID).Scan(&existingID, &isActive)
	switch {
	case err == sql.ErrNoRows:
		// fall through to insert
	case err != nil:
		return nil, fmt.Errorf("error checking membership: %w", err)
	case isActive:
		return nil, models.ErrAlreadyMember
	default:
		// Rejoin after leaving: reactivate with a fresh joined_at
		m := &models.Membership{ID: existingID, GroupID: groupID, UserID: userID, IsActive: true, JoinedAt: time.Now().UTC()}
		err = db.execQuery(tx, `UPDATE group_members SET is_active = TRUE, joined_at = $2 WHERE id = $1`, existingID, m.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("error reactivating membership: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("error committing transaction: %w", err)
		}
		return m, nil
	}

	m := &models.Membership{ID: uuid.New(), GroupID: groupID, UserID: userID, IsActive: true, JoinedAt: time.Now().UTC()}
	_, err = tx.Exec(`
		INSERT INTO group_members (id, group_id, user_id, joined_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.GroupID, m.UserID, m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Concurrent join won the partial unique index
			return nil, models.ErrAlreadyMember
		}
		return nil, fmt.Errorf("error inserting membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}
	return m, nil
}

// GetMembers retrieves the active members of a group in join order.
func (db *CircleDB) GetMembers(groupID uuid.UUID) ([]models.Membership, error) {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.is_active, gm.joined_at,
		       u.first_name, u.last_name, u.phone
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.is_active = TRUE
		ORDER BY gm.joined_at`
	rows, err := db.DB.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving members: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.IsActive, &m.JoinedAt,
			&m.FirstName, &m.LastName, &m.Phone); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsActiveMember checks if a user holds an active membership in a group.
func (db *CircleDB) IsActiveMember(groupID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 AND is_active = TRUE)`
	var exists bool
	err := db.DB.QueryRow(query, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking membership: %w", err)
	}
	return exists, nil
}
