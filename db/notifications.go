package db

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateNotification inserts a user-facing message. Delivery beyond the
// notifications table is the publisher's concern; rows here are what the
// in-app inbox reads.
func (db *CircleDB) CreateNotification(userID uuid.UUID, title, message string) error {
	_, err := db.DB.Exec(`
		INSERT INTO notifications (id, user_id, title, message)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, title, message)
	if err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	return nil
}
