package entity

import (
	"time"

	"github.com/oksasatya/qualopt/pkg/mailer"
)

// Participant is a developer who can be invited to studies.
// Many-to-many with Study via study_participants.
type Participant struct {
	ID                    string
	Email                 string
	FirstName             *string
	LastName              *string
	Location              *string
	Occupation            *string
	ProgrammingLanguage   *string
	NumberOfContributions *int
	NumberOfRepositories  *int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Recipient maps the participant onto the dispatcher's recipient model.
func (p *Participant) Recipient() mailer.Recipient {
	return mailer.Recipient{
		Email:                 p.Email,
		FirstName:             p.FirstName,
		LastName:              p.LastName,
		Location:              p.Location,
		Occupation:            p.Occupation,
		ProgrammingLanguage:   p.ProgrammingLanguage,
		NumberOfContributions: p.NumberOfContributions,
		NumberOfRepositories:  p.NumberOfRepositories,
	}
}
