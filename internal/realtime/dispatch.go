//go:generate go run go.uber.org/mock/mockgen -source=dispatch.go -destination=mocks/mock_service.go -package=mocks

package realtime

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/example/availability-scheduler/internal/application"
)

// Service is the command surface the dispatcher drives.
type Service interface {
	CreateRoom(ctx context.Context, connID string, params application.CreateRoomParams) (application.CreateRoomResult, error)
	Enter(ctx context.Context, connID string, params application.EnterParams) (application.EnterResult, error)
	Rename(ctx context.Context, connID string, claim application.Claim, name string) error
	SetUnavailable(ctx context.Context, connID string, claim application.Claim, ids []string) error
	Confirm(ctx context.Context, connID string, claim application.Claim) (application.ConfirmResult, error)
	Leave(ctx context.Context, connID string, claim application.Claim) error
	UpdateTitle(ctx context.Context, connID string, claim application.Claim, title string) error
	Kick(ctx context.Context, connID string, claim application.Claim, targetID string) error
	Dissolve(ctx context.Context, connID string, claim application.Claim) error
	State(ctx context.Context, connID string, claim application.Claim) (application.RoomView, error)
	Disconnect(ctx context.Context, connID string)
}

type handlerFunc func(ctx context.Context, connID string, payload json.RawMessage) (any, error)

// Dispatcher routes command events to the service.
type Dispatcher struct {
	svc      Service
	handlers map[string]handlerFunc
}

// NewDispatcher builds the routing table for svc.
func NewDispatcher(svc Service) *Dispatcher {
	d := &Dispatcher{svc: svc}
	d.handlers = map[string]handlerFunc{
		EventCreate:         d.create,
		EventEnter:          d.enter,
		EventJoin:           d.join,
		EventRename:         d.rename,
		EventSetUnavailable: d.setUnavailable,
		EventConfirm:        d.confirm,
		EventLeave:          d.leave,
		EventUpdate:         d.update,
		EventKick:           d.kick,
		EventDissolve:       d.dissolve,
		EventState:          d.state,
	}
	return d
}

// Dispatch runs the command named by event and returns the ack data.
func (d *Dispatcher) Dispatch(ctx context.Context, connID, event string, payload json.RawMessage) (any, error) {
	handler, ok := d.handlers[event]
	if !ok {
		return nil, application.ErrInvalidPayload
	}
	return handler(ctx, connID, payload)
}

func decode[T any](payload json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, application.ErrInvalidPayload
	}
	return out, nil
}

func (c claimPayload) claim() application.Claim {
	return application.Claim{Code: c.Code, MemberID: c.MemberID}
}

var okAck = OK{OK: true}

func (d *Dispatcher) create(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[createPayload](payload)
	if err != nil {
		return nil, err
	}
	result, err := d.svc.CreateRoom(ctx, connID, application.CreateRoomParams{
		Title:       p.Title,
		CreatorName: p.CreatorName,
		PIN:         p.PIN,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		DayStart:    p.DayStart,
		DayEnd:      p.DayEnd,
		SlotMinutes: p.SlotMinutes,
		TimeZone:    p.TimeZone,
	})
	if err != nil {
		return nil, err
	}
	return createAck{
		OK:          true,
		Code:        result.Code,
		MemberID:    result.MemberID,
		ExpiresOn:   result.ExpiresOn,
		ExpiresAt:   result.ExpiresAt,
		ResumeToken: result.ResumeToken,
		Room:        result.Room,
	}, nil
}

func (d *Dispatcher) enter(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[enterPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.enterWith(ctx, connID, application.EnterParams{
		Code:        p.Code,
		Name:        p.Name,
		PIN:         p.PIN,
		MemberID:    p.MemberID,
		ResumeToken: p.ResumeToken,
	})
}

// join is the older entry command. It never carries a remembered id.
func (d *Dispatcher) join(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[enterPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.enterWith(ctx, connID, application.EnterParams{Code: p.Code, Name: p.Name, PIN: p.PIN})
}

func (d *Dispatcher) enterWith(ctx context.Context, connID string, params application.EnterParams) (any, error) {
	result, err := d.svc.Enter(ctx, connID, params)
	if err != nil {
		return nil, err
	}
	return enterAck{
		OK:          true,
		MemberID:    result.MemberID,
		IsHost:      result.IsHost,
		ResumeToken: result.ResumeToken,
		Room:        result.Room,
	}, nil
}

func (d *Dispatcher) rename(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[renamePayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.Rename(ctx, connID, p.claim(), p.Name); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) setUnavailable(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[unavailablePayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.SetUnavailable(ctx, connID, p.claim(), p.Unavailable); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) confirm(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[claimPayload](payload)
	if err != nil {
		return nil, err
	}
	result, err := d.svc.Confirm(ctx, connID, p.claim())
	if err != nil {
		return nil, err
	}
	return confirmAck{OK: true, HostName: result.HostName, ConfirmedAt: result.ConfirmedAt}, nil
}

func (d *Dispatcher) leave(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[claimPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.Leave(ctx, connID, p.claim()); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) update(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[updatePayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.UpdateTitle(ctx, connID, p.claim(), p.Title); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) kick(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[kickPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.Kick(ctx, connID, p.claim(), p.target()); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) dissolve(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[claimPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := d.svc.Dissolve(ctx, connID, p.claim()); err != nil {
		return nil, err
	}
	return okAck, nil
}

func (d *Dispatcher) state(ctx context.Context, connID string, payload json.RawMessage) (any, error) {
	p, err := decode[claimPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.svc.State(ctx, connID, p.claim())
}

// ackError renders err for the wire. Unknown errors become Internal.
func ackError(err error) AckError {
	code, message := application.CodeOf(err)
	return AckError{OK: false, Error: message, Code: code}
}
