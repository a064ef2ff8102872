package attendance

import "errors"

var (
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidAction    = errors.New("action must be clock_in or clock_out")
	ErrUnknownEmployee  = errors.New("invalid employee")
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNoOpenClockIn    = errors.New("no clock-in record found")
)
