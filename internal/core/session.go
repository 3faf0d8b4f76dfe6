package core

import "github.com/sgrey/chatline/internal/domain"

// session pairs user meta with its transport endpoint.
type session struct {
	user *domain.User
	conn SignalConnection
}

func NewSession(user *domain.User, conn SignalConnection) Session {
	return &session{user: user, conn: conn}
}

func (s *session) User() *domain.User       { return s.user }
func (s *session) Signal() SignalConnection { return s.conn }
