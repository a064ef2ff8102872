package attendance

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
)

func (a Action) Valid() bool {
	return a == ActionClockIn || a == ActionClockOut
}

// State is where a record sits in the clock-in/clock-out machine for its
// employee and day.
type State int

const (
	StateNotClockedIn State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "not_clocked_in"
	}
}

type Record struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Date         Date       `json:"date"`
	ClockIn      *time.Time `json:"clockInTime"`
	ClockOut     *time.Time `json:"clockOutTime"`
}

func (r Record) State() State {
	switch {
	case r.ClockOut != nil:
		return StateClosed
	case r.ClockIn != nil:
		return StateOpen
	default:
		return StateNotClockedIn
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		State string `json:"state"`
	}{plain: plain(r), State: r.State().String()})
}

type ActionInput struct {
	EmployeeID string `json:"employee_id"`
	Action     string `json:"action"`
	Date       string `json:"date"`
}

type Summary struct {
	Date           Date `json:"date"`
	TotalEmployees int  `json:"totalEmployees"`
	ClockedIn      int  `json:"clockedIn"`
	ClockedOut     int  `json:"clockedOut"`
}

// Summarize counts the day's records with a clock-in and with a clock-out.
// A closed record counts toward both.
func Summarize(date Date, totalEmployees int, records []Record) Summary {
	summary := Summary{Date: date, TotalEmployees: totalEmployees}
	for _, rec := range records {
		if rec.Date != date {
			continue
		}
		if rec.ClockIn != nil {
			summary.ClockedIn++
		}
		if rec.ClockOut != nil {
			summary.ClockedOut++
		}
	}
	return summary
}
