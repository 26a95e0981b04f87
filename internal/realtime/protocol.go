// Package realtime carries room commands and pushes over WebSocket.
//
// Clients send {"id","event","payload"} frames. Every command frame is
// answered with an ack frame carrying the same id; pushes arrive as event
// frames. Pushes caused by a command are queued before its ack.
package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/application"
)

// Frame types.
const (
	FrameAck   = "ack"
	FrameEvent = "event"
)

// Command event names.
const (
	EventCreate         = "room:create"
	EventEnter          = "room:enter"
	EventJoin           = "room:join"
	EventUpdate         = "room:update"
	EventKick           = "room:kick"
	EventDissolve       = "room:dissolve"
	EventState          = "room:state"
	EventRename         = "member:rename"
	EventSetUnavailable = "member:set_unavailable"
	EventConfirm        = "member:confirm"
	EventLeave          = "member:leave"
)

// Inbound is a frame sent by a client.
type Inbound struct {
	ID      string          `json:"id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is a frame sent to a client.
type Outbound struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// AckError is the data of a failed ack.
type AckError struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OK is the data of an ack that carries nothing else.
type OK struct {
	OK bool `json:"ok"`
}

type claimPayload struct {
	Code     string `json:"code"`
	MemberID string `json:"memberId"`
}

type createPayload struct {
	Title       string `json:"title"`
	CreatorName string `json:"creatorName"`
	PIN         string `json:"pin"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	DayStart    string `json:"dayStart"`
	DayEnd      string `json:"dayEnd"`
	SlotMinutes int    `json:"slotMinutes"`
	TimeZone    string `json:"timeZone"`
}

type enterPayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	PIN         string `json:"pin"`
	MemberID    string `json:"memberId"`
	ResumeToken string `json:"resumeToken"`
}

type renamePayload struct {
	claimPayload
	Name string `json:"name"`
}

type unavailablePayload struct {
	claimPayload
	Unavailable []string `json:"unavailable"`
}

type updatePayload struct {
	claimPayload
	Title string `json:"title"`
}

type kickPayload struct {
	claimPayload
	TargetMemberID string `json:"targetMemberId"`
	TargetID       string `json:"targetId"`
}

// target prefers targetMemberId and falls back to the older targetId key.
func (p kickPayload) target() string {
	if id := strings.TrimSpace(p.TargetMemberID); id != "" {
		return id
	}
	return strings.TrimSpace(p.TargetID)
}

type createAck struct {
	OK          bool                 `json:"ok"`
	Code        string               `json:"code"`
	MemberID    string               `json:"memberId"`
	ExpiresOn   string               `json:"expiresOn"`
	ExpiresAt   time.Time            `json:"expiresAt"`
	ResumeToken string               `json:"resumeToken,omitempty"`
	Room        application.RoomInfo `json:"room"`
}

type enterAck struct {
	OK          bool                 `json:"ok"`
	MemberID    string               `json:"memberId"`
	IsHost      bool                 `json:"isHost"`
	ResumeToken string               `json:"resumeToken,omitempty"`
	Room        application.RoomInfo `json:"room"`
}

type confirmAck struct {
	OK          bool      `json:"ok"`
	HostName    string    `json:"hostName"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}
