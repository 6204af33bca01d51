// Package rooms builds the group keys that partition the connection
// registry. Every broadcast surface addresses its audience through one
// of these keys.
package rooms

import "fmt"

// PresenceKey is the single global group carrying online/offline
// transitions for every connected user.
const PresenceKey = "presence:global"

// ChatKey addresses everyone in a circle's chat room.
func ChatKey(circleID int64) string {
	return fmt.Sprintf("chat:%d", circleID)
}

// DMKey addresses a two-party conversation. The pair is ordered so
// both participants land in the same group regardless of who connects.
func DMKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d_%d", a, b)
}

// SudokuKey addresses a circle's shared board.
func SudokuKey(circleID int64) string {
	return fmt.Sprintf("sudoku:%d", circleID)
}

// NotificationsKey addresses all sessions of one user.
func NotificationsKey(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}
