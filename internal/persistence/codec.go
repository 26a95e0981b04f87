package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// FileVersion is the current whole-state document version.
const FileVersion = 1

// StateDocument is the whole-state form written by file-based backends.
type StateDocument struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"savedAt"`
	Rooms   []RoomSnapshot `json:"rooms"`
}

// EncodeSnapshot renders one snapshot as JSON.
func EncodeSnapshot(snapshot RoomSnapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snapshot.Code, err)
	}
	return data, nil
}

// DecodeSnapshot parses one snapshot and applies load defaults.
func DecodeSnapshot(data []byte) (RoomSnapshot, error) {
	var snapshot RoomSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return RoomSnapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snapshot.Code == "" {
		return RoomSnapshot{}, fmt.Errorf("%w: missing code", ErrCorruptSnapshot)
	}
	return snapshot.WithDefaults(), nil
}

// EncodeState renders a whole-state document with rooms sorted by code.
func EncodeState(rooms []RoomSnapshot, savedAt time.Time) ([]byte, error) {
	sorted := append([]RoomSnapshot(nil), rooms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	data, err := json.MarshalIndent(StateDocument{Version: FileVersion, SavedAt: savedAt.UTC(), Rooms: sorted}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a whole-state document. Besides the versioned form it
// accepts a bare array of rooms and an object keyed by room code.
func DecodeState(data []byte) ([]RoomSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var rooms []RoomSnapshot
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &rooms); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if _, ok := probe["rooms"]; ok {
			var doc StateDocument
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
			}
			rooms = doc.Rooms
			break
		}
		for code, raw := range probe {
			var snapshot RoomSnapshot
			if err := json.Unmarshal(raw, &snapshot); err != nil {
				return nil, fmt.Errorf("%w: room %s: %v", ErrCorruptSnapshot, code, err)
			}
			if snapshot.Code == "" {
				snapshot.Code = code
			}
			rooms = append(rooms, snapshot)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected document", ErrCorruptSnapshot)
	}

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		if room.Code == "" {
			continue
		}
		out = append(out, room.WithDefaults())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
