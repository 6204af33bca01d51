package models

import "time"

// Message is a chat message within a circle. Append-only; never mutated or
// deleted by this system.
type Message struct {
	ID        int64     `json:"id"`
	CircleID  int64     `json:"circle"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DirectMessage is a one-to-one message between two users.
type DirectMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}
