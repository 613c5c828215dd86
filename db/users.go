package db

import (
	"database/sql"
	"fmt"

	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
)

// EnsureUser upserts a user row from verified claims and returns the stored
// identity. Contact details follow whatever the identity provider holds now.
func (db *CircleDB) EnsureUser(user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, first_name, last_name, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email
		RETURNING id, created_at`

	stored := *user
	err := db.DB.QueryRow(query,
		uuid.New(), user.Username, user.FirstName, user.LastName, user.Phone, user.Email).
		Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return &stored, nil
}

// GetUser retrieves a single user by ID.
func (db *CircleDB) GetUser(userID uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, first_name, last_name, phone, email, created_at FROM users WHERE id = $1`
	row := db.DB.QueryRow(query, userID)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			// User does not exist, return nil user and nil error
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return &u, nil
}
