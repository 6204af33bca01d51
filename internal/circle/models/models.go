package models

import (
	"time"

	identitymodels "circles/internal/identity/models"
)

// Circle is a named group of users sharing chat, tasks and a sudoku board.
type Circle struct {
	ID          int64
	Name        string
	Description string
	AdminID     int64
	InviteCode  string
	CreatedAt   time.Time
}

// CircleDetail is Circle plus its resolved member list.
type CircleDetail struct {
	Circle
	Members []identitymodels.PublicUser
}
