package entity

import "time"

// Study groups participants under one invitation template.
// EmailBody is nullable; a nil body is sent as an empty string.
type Study struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	EmailSubject string
	EmailBody    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Study) Body() string {
	if s.EmailBody == nil {
		return ""
	}
	return *s.EmailBody
}
