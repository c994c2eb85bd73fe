package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/config"
	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/internal/domain/repository"
	pginfra "github.com/oksasatya/qualopt/internal/infrastructure/postgres"
	"github.com/oksasatya/qualopt/pkg/helpers"
)

// seed creates a demo operator with one study and a few participants.
// SEED_USER_EMAIL and SEED_USER_PASSWORD must be set.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := os.Getenv("SEED_USER_EMAIL")
	password := os.Getenv("SEED_USER_PASSWORD")
	if email == "" || password == "" {
		logger.Fatal("SEED_USER_EMAIL and SEED_USER_PASSWORD are required")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.PoolOptions())
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	studies := pginfra.NewStudyRepository(pool)
	participants := pginfra.NewParticipantRepository(pool)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		hash, hErr := helpers.HashPassword(password)
		if hErr != nil {
			logger.WithError(hErr).Fatal("failed to hash password")
		}
		u = &entity.User{Email: email, Password: hash, Name: "Demo Operator"}
		err = users.Create(ctx, u)
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to seed user")
	}
	helpers.LogInfo(logger, "seeded user", logrus.Fields{"user_id": u.ID, "email": u.Email})

	body := "Hi --firstName --lastName,\n\n" +
		"We are studying how --programmingLanguage developers in --location work. " +
		"With --numberOfContributions contributions across --numberOfRepositories repositories, " +
		"your view as a --occupation would help us a lot.\n"
	st := &entity.Study{
		UserID:       u.ID,
		Name:         "Code review habits",
		Description:  "Interview study on code review practices",
		EmailSubject: "Invitation: code review study",
		EmailBody:    &body,
	}
	if err := studies.Create(ctx, st); err != nil {
		logger.WithError(err).Fatal("failed to seed study")
	}

	for _, p := range demoParticipants() {
		if err := participants.Create(ctx, &p); err != nil {
			logger.WithError(err).Fatal("failed to seed participant")
		}
		if err := studies.AddParticipant(ctx, st.ID, p.ID); err != nil {
			logger.WithError(err).Fatal("failed to link participant")
		}
	}
	helpers.LogInfo(logger, "seeded study", logrus.Fields{"study_id": st.ID})
}

func demoParticipants() []entity.Participant {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	return []entity.Participant{
		{
			Email: "ada@example.com", FirstName: str("Ada"), LastName: str("Lovelace"),
			Location: str("London"), Occupation: str("Engineer"), ProgrammingLanguage: str("Go"),
			NumberOfContributions: num(120), NumberOfRepositories: num(8),
		},
		{
			Email: "grace@example.com", FirstName: str("Grace"), LastName: str("Hopper"),
			Location: str("Arlington"), ProgrammingLanguage: str("COBOL"),
			NumberOfContributions: num(0),
		},
		{Email: "anon@example.com"},
	}
}
