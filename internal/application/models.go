package application

import "time"

// Push event names delivered to connections.
const (
	EventRoomState     = "room:state"
	EventRoomKicked    = "room:kicked"
	EventRoomDissolved = "room:dissolved"
	EventRoomExpired   = "room:expired"
)

// Conflict visibility modes.
const (
	ConflictModeCount    = "count"
	ConflictModeDetailed = "detailed"
)

// Session binds one live connection to a member of a room.
type Session struct {
	ConnID   string
	RoomCode string
	MemberID string
}

// Claim optionally names the room and member a caller believes it is bound to.
// Non-empty fields must match the connection's session.
type Claim struct {
	Code     string
	MemberID string
}

// CreateRoomParams carries the room:create payload.
type CreateRoomParams struct {
	Title       string
	CreatorName string
	PIN         string `validate:"pin"`
	StartDate   string `validate:"required,datetime=2006-01-02"`
	EndDate     string `validate:"required,datetime=2006-01-02"`
	DayStart    string `validate:"required,datetime=15:04"`
	DayEnd      string `validate:"required,datetime=15:04"`
	SlotMinutes int    `validate:"oneof=15 30 60"`
	TimeZone    string `validate:"required,timezone"`
}

// CreateRoomResult is returned to the creating connection.
type CreateRoomResult struct {
	Code        string
	MemberID    string
	ExpiresOn   string
	ExpiresAt   time.Time
	ResumeToken string
	Room        RoomInfo
}

// EnterParams carries the room:enter payload.
type EnterParams struct {
	Code        string
	Name        string
	PIN         string
	MemberID    string
	ResumeToken string
}

// EnterResult is returned to the entering connection.
type EnterResult struct {
	MemberID    string
	IsHost      bool
	ResumeToken string
	Room        RoomInfo
}

// ConfirmResult is returned by Confirm.
type ConfirmResult struct {
	HostName    string
	ConfirmedAt time.Time
}

// RoomInfo is the public room metadata.
type RoomInfo struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	DayStart    string    `json:"dayStart"`
	DayEnd      string    `json:"dayEnd"`
	SlotMinutes int       `json:"slotMinutes"`
	TimeZone    string    `json:"timeZone"`
	CreatorName string    `json:"creatorName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// MemberView is one roster entry.
type MemberView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	IsOwner     bool       `json:"isOwner"`
	Online      bool       `json:"online"`
	JoinedAt    time.Time  `json:"joinedAt"`
	LastSeenAt  time.Time  `json:"lastSeenAt"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
}

// YouView describes the viewing member.
type YouView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	IsOwner     bool       `json:"isOwner"`
	Unavailable []string   `json:"unavailable"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
}

// ConflictView carries counts for members and member ids for the owner.
// Data is map[string]int in count mode and map[string][]string in detailed mode.
type ConflictView struct {
	Mode string `json:"mode"`
	Data any    `json:"data"`
}

// RoomView is the room:state payload tailored to one connection.
type RoomView struct {
	OK          bool         `json:"ok"`
	Room        RoomInfo     `json:"room"`
	Slots       []string     `json:"slots"`
	Members     []MemberView `json:"members"`
	MemberCount int          `json:"memberCount"`
	You         *YouView     `json:"you"`
	Conflicts   ConflictView `json:"conflicts"`
	IsHost      bool         `json:"isHost"`
}

// Notice is the payload of kicked, dissolved and expired pushes.
type Notice struct {
	OK   bool   `json:"ok"`
	Code string `json:"code"`
}
