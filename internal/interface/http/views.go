package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/qualopt/internal/domain/entity"
)

func studyView(s *entity.Study) gin.H {
	return gin.H{
		"id":            s.ID,
		"name":          s.Name,
		"description":   s.Description,
		"email_subject": s.EmailSubject,
		"email_body":    s.EmailBody,
		"created_at":    s.CreatedAt.Format(time.RFC3339),
		"updated_at":    s.UpdatedAt.Format(time.RFC3339),
	}
}

func studyViews(ss []entity.Study) []gin.H {
	out := make([]gin.H, 0, len(ss))
	for i := range ss {
		out = append(out, studyView(&ss[i]))
	}
	return out
}

func participantView(p *entity.Participant) gin.H {
	return gin.H{
		"id":                      p.ID,
		"email":                   p.Email,
		"first_name":              p.FirstName,
		"last_name":               p.LastName,
		"location":                p.Location,
		"occupation":              p.Occupation,
		"programming_language":    p.ProgrammingLanguage,
		"number_of_contributions": p.NumberOfContributions,
		"number_of_repositories":  p.NumberOfRepositories,
		"created_at":              p.CreatedAt.Format(time.RFC3339),
		"updated_at":              p.UpdatedAt.Format(time.RFC3339),
	}
}

func participantViews(ps []entity.Participant) []gin.H {
	out := make([]gin.H, 0, len(ps))
	for i := range ps {
		out = append(out, participantView(&ps[i]))
	}
	return out
}
