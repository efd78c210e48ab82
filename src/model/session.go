package model

import "fmt"

type SessionStatus string

const (
	SessionUninitialized SessionStatus = "uninitialized"
	SessionChecking      SessionStatus = "checking"
	SessionDisconnected  SessionStatus = "disconnected"
	SessionConnecting    SessionStatus = "connecting"
	SessionConnected     SessionStatus = "connected"
	SessionError         SessionStatus = "error"
)

// SessionState is a value; a new one is produced on every transition. Identity is only
// populated when Status is SessionConnected, Reason only when Status is SessionError.
type SessionState struct {
	Status   SessionStatus
	Identity Identity
	Reason   string
}

func (s SessionState) Connected() bool {
	return s.Status == SessionConnected && !s.Identity.Empty()
}

func (s SessionState) String() string {
	switch s.Status {
	case SessionConnected:
		return fmt.Sprintf("%s(%s)", s.Status, s.Identity.DisplayName)
	case SessionError:
		return fmt.Sprintf("%s(%s)", s.Status, s.Reason)
	}
	return string(s.Status)
}

// SessionTransition is what gets broadcast to listeners whenever the session moves.
type SessionTransition struct {
	From SessionState
	To   SessionState
}
