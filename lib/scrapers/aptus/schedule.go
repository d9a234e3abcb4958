package aptus

import "fmt"

type Pass struct {
	No    int
	Start string
	End   string
}

// Schedule is the ordered pass table for a booking group. the portal
// identifies an interval only by its clock times, so the interval's end time
// is the authoritative key for mapping it to a passNo. schedules differ per
// deployment, which is why this is injected into the client rather than kept
// as package state.
type Schedule []Pass

func DefaultSchedule() Schedule {
	return Schedule{
		{No: 0, Start: "07:00", End: "10:00"},
		{No: 1, Start: "10:00", End: "12:00"},
		{No: 2, Start: "12:00", End: "14:00"},
		{No: 3, Start: "14:00", End: "16:00"},
		{No: 4, Start: "16:00", End: "18:00"},
		{No: 5, Start: "18:00", End: "20:00"},
		{No: 6, Start: "20:00", End: "21:00"},
		{No: 7, Start: "21:00", End: "22:00"},
	}
}

func (s Schedule) PassForEnd(end string) (int, bool) {
	for _, p := range s {
		if p.End == end {
			return p.No, true
		}
	}
	return 0, false
}

// Label returns the human readable time range of a pass, e.g. "14:00 - 16:00",
// or the empty string for a passNo outside the schedule.
func (s Schedule) Label(passNo int) string {
	for _, p := range s {
		if p.No == passNo {
			return fmt.Sprintf("%s - %s", p.Start, p.End)
		}
	}
	return ""
}
