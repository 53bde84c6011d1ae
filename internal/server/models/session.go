package models

import "time"

type Session struct {
	Token     string
	AccountID string
	Expires   time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
