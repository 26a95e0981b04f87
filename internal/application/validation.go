package application

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/example/availability-scheduler/internal/slots"
)

const (
	maxTitleLength = 80
	maxNameLength  = 40

	defaultTitle       = "Untitled session"
	defaultCreatorName = "Host"
	defaultDayStart    = "09:00"
	defaultDayEnd      = "23:00"
	defaultSlotMinutes = 30
	defaultTimeZone    = "UTC"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return ValidPin(fl.Field().String())
	})
	return v
}

// fieldCodes orders create fields by the precedence of their error codes.
var fieldCodes = []struct {
	field string
	err   *CommandError
}{
	{field: "StartDate", err: ErrInvalidDate},
	{field: "EndDate", err: ErrInvalidDate},
	{field: "DayStart", err: ErrInvalidWindow},
	{field: "DayEnd", err: ErrInvalidWindow},
	{field: "SlotMinutes", err: ErrInvalidGranularity},
	{field: "TimeZone", err: ErrInvalidTimeZone},
	{field: "PIN", err: ErrInvalidPin},
}

// normalizeCreateParams trims input and fills the defaults the room form uses.
func normalizeCreateParams(params CreateRoomParams) CreateRoomParams {
	params.Title = clampString(params.Title, maxTitleLength)
	if params.Title == "" {
		params.Title = defaultTitle
	}
	params.CreatorName = clampString(params.CreatorName, maxNameLength)
	if params.CreatorName == "" {
		params.CreatorName = defaultCreatorName
	}
	params.StartDate = strings.TrimSpace(params.StartDate)
	params.EndDate = strings.TrimSpace(params.EndDate)
	params.DayStart = strings.TrimSpace(params.DayStart)
	if params.DayStart == "" {
		params.DayStart = defaultDayStart
	}
	params.DayEnd = strings.TrimSpace(params.DayEnd)
	if params.DayEnd == "" {
		params.DayEnd = defaultDayEnd
	}
	if params.SlotMinutes == 0 {
		params.SlotMinutes = defaultSlotMinutes
	}
	params.TimeZone = strings.TrimSpace(params.TimeZone)
	if params.TimeZone == "" {
		params.TimeZone = defaultTimeZone
	}
	return params
}

func validateCreateFields(params CreateRoomParams) *ValidationError {
	vErr := &ValidationError{}
	if err := validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				vErr.add(fe.Field(), "failed "+fe.Tag())
			}
		} else {
			vErr.add("payload", err.Error())
		}
	}
	if !vErr.HasErrors() {
		return vErr
	}
	for _, fc := range fieldCodes {
		if _, ok := vErr.FieldErrors[fc.field]; ok {
			vErr.Err = fc.err
			break
		}
	}
	if vErr.Err == nil {
		vErr.Err = ErrInvalidPayload
	}
	return vErr
}

// validateCreate checks shape with the validator and scheduling semantics with
// the slot engine. Errors follow the order dates, window, granularity, zone, PIN.
func validateCreate(engine *slots.Engine, params CreateRoomParams, rules slots.Rules) (slots.Parsed, error) {
	vErr := validateCreateFields(params)
	if vErr.HasErrors() && vErr.Err != ErrInvalidPin {
		return slots.Parsed{}, vErr
	}
	parsed, err := engine.Parse(rules)
	if err != nil {
		return slots.Parsed{}, mapSlotsError(err)
	}
	if vErr.HasErrors() {
		return slots.Parsed{}, vErr
	}
	return parsed, nil
}

func mapSlotsError(err error) error {
	switch {
	case errors.Is(err, slots.ErrInvalidDate):
		return ErrInvalidDate
	case errors.Is(err, slots.ErrInvalidWindow):
		return ErrInvalidWindow
	case errors.Is(err, slots.ErrInvalidGranularity):
		return ErrInvalidGranularity
	case errors.Is(err, slots.ErrInvalidTimeZone):
		return ErrInvalidTimeZone
	default:
		return err
	}
}

// clampString trims s and cuts it to at most max runes.
func clampString(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
