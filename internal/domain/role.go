// Package domain contains entity without logic, just meta-data.
package domain

import "errors"

var ErrUnknownRole = errors.New("unknown role")

// Role is the application-level role of a peer inside an interview room.
// Roles come from the upstream auth layer, not from arrival order.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInterviewer, RoleCandidate:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}
