package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session ended")
	ErrNotParticipant  = errors.New("not authorized for this session")
)

type (
	SessionID     string
	ParticipantID string
)

// Session is the read-only handle fetched from the session directory.
// CandidateID stays empty until a candidate has joined.
type Session struct {
	ID            SessionID
	InterviewerID ParticipantID
	CandidateID   ParticipantID
	Open          bool
}

// RoleOf maps a verified participant identity onto a role within the
// session. The empty-candidate case falls through to ErrNotParticipant.
func (s *Session) RoleOf(pid ParticipantID) (Role, error) {
	switch {
	case pid == s.InterviewerID:
		return RoleInterviewer, nil
	case s.CandidateID != "" && pid == s.CandidateID:
		return RoleCandidate, nil
	default:
		return "", ErrNotParticipant
	}
}
