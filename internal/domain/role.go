// Package domain contains entity types without logic, just meta-data.
package domain

// Role identifies which side of the interview a participant is on.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Opposite returns the counterpart role for relay targeting.
func (r Role) Opposite() Role {
	if r == RoleInterviewer {
		return RoleCandidate
	}
	return RoleInterviewer
}

func (r Role) String() string { return string(r) }
