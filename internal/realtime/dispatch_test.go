package realtime

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/realtime/mocks"
)

func newMockDispatcher(t *testing.T) (*Dispatcher, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	return NewDispatcher(svc), svc
}

func TestDispatchCreateMapsPayloadAndAck(t *testing.T) {
	d, svc := newMockDispatcher(t)
	expires := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

	svc.EXPECT().CreateRoom(gomock.Any(), "conn-1", application.CreateRoomParams{
		Title:       "Sync",
		CreatorName: "Alice",
		PIN:         "1234",
		StartDate:   "2025-01-10",
		EndDate:     "2025-01-12",
		DayStart:    "09:00",
		DayEnd:      "12:00",
		SlotMinutes: 60,
		TimeZone:    "UTC",
	}).Return(application.CreateRoomResult{
		Code:      "123456",
		MemberID:  "m1",
		ExpiresOn: "2025-01-12",
		ExpiresAt: expires,
	}, nil)

	payload := json.RawMessage(`{"title":"Sync","creatorName":"Alice","pin":"1234","startDate":"2025-01-10","endDate":"2025-01-12","dayStart":"09:00","dayEnd":"12:00","slotMinutes":60,"timeZone":"UTC"}`)
	data, err := d.Dispatch(t.Context(), "conn-1", EventCreate, payload)
	require.NoError(t, err)

	ack, ok := data.(createAck)
	require.True(t, ok, "unexpected ack type %T", data)
	assert.True(t, ack.OK)
	assert.Equal(t, "123456", ack.Code)
	assert.Equal(t, "m1", ack.MemberID)
	assert.Equal(t, expires, ack.ExpiresAt)
}

func TestDispatchJoinDropsRememberedIdentity(t *testing.T) {
	d, svc := newMockDispatcher(t)

	svc.EXPECT().Enter(gomock.Any(), "conn-1", application.EnterParams{Code: "123456", Name: "Bob", PIN: "0000"}).
		Return(application.EnterResult{MemberID: "m2"}, nil)

	payload := json.RawMessage(`{"code":"123456","name":"Bob","pin":"0000","memberId":"m1","resumeToken":"t"}`)
	data, err := d.Dispatch(t.Context(), "conn-1", EventJoin, payload)
	require.NoError(t, err)
	assert.Equal(t, "m2", data.(enterAck).MemberID)
}

func TestDispatchEnterKeepsRememberedIdentity(t *testing.T) {
	d, svc := newMockDispatcher(t)

	svc.EXPECT().Enter(gomock.Any(), "conn-1", application.EnterParams{Code: "123456", PIN: "0000", MemberID: "m1"}).
		Return(application.EnterResult{MemberID: "m1", IsHost: true}, nil)

	data, err := d.Dispatch(t.Context(), "conn-1", EventEnter, json.RawMessage(`{"code":"123456","pin":"0000","memberId":"m1"}`))
	require.NoError(t, err)
	ack := data.(enterAck)
	assert.True(t, ack.IsHost)
}

func TestDispatchClaimCommands(t *testing.T) {
	claim := application.Claim{Code: "123456", MemberID: "m1"}
	base := `"code":"123456","memberId":"m1"`

	tests := []struct {
		name    string
		event   string
		payload string
		expect  func(svc *mocks.MockService)
	}{
		{
			name:    "rename",
			event:   EventRename,
			payload: `{` + base + `,"name":"Zed"}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().Rename(gomock.Any(), "c", claim, "Zed").Return(nil)
			},
		},
		{
			name:    "set unavailable",
			event:   EventSetUnavailable,
			payload: `{` + base + `,"unavailable":["28941660","28941720"]}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().SetUnavailable(gomock.Any(), "c", claim, []string{"28941660", "28941720"}).Return(nil)
			},
		},
		{
			name:    "leave",
			event:   EventLeave,
			payload: `{` + base + `}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().Leave(gomock.Any(), "c", claim).Return(nil)
			},
		},
		{
			name:    "update",
			event:   EventUpdate,
			payload: `{` + base + `,"title":"New"}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().UpdateTitle(gomock.Any(), "c", claim, "New").Return(nil)
			},
		},
		{
			name:    "kick",
			event:   EventKick,
			payload: `{` + base + `,"targetMemberId":"m2"}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().Kick(gomock.Any(), "c", claim, "m2").Return(nil)
			},
		},
		{
			name:    "kick with targetId",
			event:   EventKick,
			payload: `{` + base + `,"targetId":" m3 "}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().Kick(gomock.Any(), "c", claim, "m3").Return(nil)
			},
		},
		{
			name:    "dissolve",
			event:   EventDissolve,
			payload: `{` + base + `}`,
			expect: func(svc *mocks.MockService) {
				svc.EXPECT().Dissolve(gomock.Any(), "c", claim).Return(nil)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, svc := newMockDispatcher(t)
			tc.expect(svc)

			data, err := d.Dispatch(t.Context(), "c", tc.event, json.RawMessage(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, okAck, data)
		})
	}
}

func TestDispatchConfirmAndState(t *testing.T) {
	d, svc := newMockDispatcher(t)
	claim := application.Claim{Code: "123456", MemberID: "m1"}
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	svc.EXPECT().Confirm(gomock.Any(), "c", claim).Return(application.ConfirmResult{HostName: "Alice", ConfirmedAt: at}, nil)
	svc.EXPECT().State(gomock.Any(), "c", claim).Return(application.RoomView{OK: true, MemberCount: 2}, nil)

	payload := json.RawMessage(`{"code":"123456","memberId":"m1"}`)
	data, err := d.Dispatch(t.Context(), "c", EventConfirm, payload)
	require.NoError(t, err)
	assert.Equal(t, confirmAck{OK: true, HostName: "Alice", ConfirmedAt: at}, data)

	data, err = d.Dispatch(t.Context(), "c", EventState, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, data.(application.RoomView).MemberCount)
}

func TestDispatchRejectsBadInput(t *testing.T) {
	d, _ := newMockDispatcher(t)

	_, err := d.Dispatch(t.Context(), "c", "room:teleport", nil)
	assert.ErrorIs(t, err, application.ErrInvalidPayload)

	_, err = d.Dispatch(t.Context(), "c", EventRename, json.RawMessage(`{"code":`))
	assert.ErrorIs(t, err, application.ErrInvalidPayload)

	_, err = d.Dispatch(t.Context(), "c", EventSetUnavailable, json.RawMessage(`{"unavailable":"28941660"}`))
	assert.ErrorIs(t, err, application.ErrInvalidPayload)
}

func TestDispatchNullPayloadReachesService(t *testing.T) {
	d, svc := newMockDispatcher(t)
	svc.EXPECT().Leave(gomock.Any(), "c", application.Claim{}).Return(application.ErrUnauthorized)

	_, err := d.Dispatch(t.Context(), "c", EventLeave, json.RawMessage(`null`))
	assert.ErrorIs(t, err, application.ErrUnauthorized)
}

func TestAckErrorHidesInternalErrors(t *testing.T) {
	assert.Equal(t, AckError{OK: false, Error: application.ErrWrongPin.Message, Code: "WrongPin"}, ackError(application.ErrWrongPin))

	internal := ackError(errors.New("disk on fire"))
	assert.Equal(t, "Internal", internal.Code)
	assert.NotContains(t, internal.Error, "disk")
}
