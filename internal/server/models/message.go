package models

import "time"

type Message struct {
	ID        string
	Title     string
	Content   string
	AccountID string
	CreatedAt time.Time
}

// MessageView is a listing row: a message joined with its author's name.
type MessageView struct {
	Message
	AuthorFirstName string
	AuthorLastName  string
}

func (m MessageView) Author() string {
	return m.AuthorFirstName + " " + m.AuthorLastName
}
