// file: internals/features/school/assignments/model/status.go
package model

import "time"

type Status string

const (
	StatusSubmitted    Status = "SUBMITTED"
	StatusLate         Status = "LATE"
	StatusNotSubmitted Status = "NOT_SUBMITTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusLate, StatusNotSubmitted:
		return true
	}
	return false
}

// DeriveStatus computes a submission's status at write time.
// It is evaluated on every write touching the file, so a re-submit after the
// deadline turns a SUBMITTED record into LATE.
func DeriveStatus(now, deadline time.Time, lateDeadline *time.Time, hasAttachment bool) (Status, error) {
	switch {
	case !hasAttachment:
		return StatusNotSubmitted, nil
	case lateDeadline != nil && now.After(*lateDeadline):
		return "", ErrSubmissionWindowClosed
	case now.After(deadline):
		return StatusLate, nil
	default:
		return StatusSubmitted, nil
	}
}
