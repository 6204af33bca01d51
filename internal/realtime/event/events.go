// Package event defines the outbound wire envelopes shared by the realtime
// core and the CRUD services that trigger broadcasts. Every envelope carries
// a "type" discriminator so clients can dispatch without sniffing fields.
package event

import (
	"encoding/json"
)

// Discriminator values.
const (
	TypeChatMessage  = "chat_message"
	TypeTaskUpdate   = "task_update"
	TypeUserStatus   = "user_status"
	TypeInitialState = "initial_state"
	TypeNotification = "notification"
	TypeGameState    = "game_state"
	TypeBoardUpdate  = "board_update"
	TypeNewGame      = "new_game"
	TypeError        = "error"
)

// Sender identifies the originator of a chat or direct message.
type Sender struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ChatMessage is broadcast to a chat or dm group after the message has been
// durably recorded.
type ChatMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Sender  Sender `json:"sender"`
}

func NewChatMessage(message string, senderID int64, senderUsername string) ChatMessage {
	return ChatMessage{
		Type:    TypeChatMessage,
		Message: message,
		Sender:  Sender{ID: senderID, Username: senderUsername},
	}
}

// TaskUpdate tells chat subscribers that the circle's task list changed.
type TaskUpdate struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

func NewTaskUpdate(action string) TaskUpdate {
	return TaskUpdate{Type: TypeTaskUpdate, Action: action}
}

// UserStatus announces a presence flip on the global presence group.
type UserStatus struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

func NewUserStatus(userID int64, online bool) UserStatus {
	status := "offline"
	if online {
		status = "online"
	}
	return UserStatus{Type: TypeUserStatus, UserID: userID, Status: status}
}

// InitialState is sent once to a freshly joined presence connection.
type InitialState struct {
	Type        string  `json:"type"`
	OnlineUsers []int64 `json:"online_users"`
}

func NewInitialState(onlineUsers []int64) InitialState {
	if onlineUsers == nil {
		onlineUsers = []int64{}
	}
	return InitialState{Type: TypeInitialState, OnlineUsers: onlineUsers}
}

// NotificationData is the payload of a targeted notification. Kind values
// follow the client contract: task_assigned, circle_message.
type NotificationData struct {
	Kind     string `json:"type"`
	Sender   string `json:"sender"`
	CircleID int64  `json:"circle_id,omitempty"`
	TaskID   int64  `json:"task_id,omitempty"`
	Message  string `json:"message"`
}

// Notification wraps NotificationData for delivery to a notifications
// connection.
type Notification struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

func NewNotification(data NotificationData) Notification {
	return Notification{Type: TypeNotification, Data: data}
}

// GameState is the join-time snapshot of a circle's sudoku board. It is sent
// to the joining connection only, never broadcast.
type GameState struct {
	Type         string  `json:"type"`
	Board        [][]int `json:"board"`
	InitialBoard [][]int `json:"initial_board"`
	Solution     [][]int `json:"solution"`
	Difficulty   string  `json:"difficulty"`
	IsSolved     bool    `json:"is_solved"`
}

// BoardUpdate is the single-cell delta broadcast after update_cell.
type BoardUpdate struct {
	Type     string `json:"type"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Value    int    `json:"value"`
	SenderID int64  `json:"sender_id"`
}

// NewGame is broadcast when a member replaces the circle's board.
type NewGame struct {
	Type         string  `json:"type"`
	Board        [][]int `json:"board"`
	InitialBoard [][]int `json:"initial_board"`
	Solution     [][]int `json:"solution"`
	Difficulty   string  `json:"difficulty"`
}

// Error is sent to the originating connection only; it never closes the
// connection.
type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewError(message string) Error {
	return Error{Type: TypeError, Error: message}
}

// Marshal encodes an envelope, panicking on programmer error (envelopes are
// plain structs and cannot fail to encode).
func Marshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("event: marshal envelope: " + err.Error())
	}
	return data
}
