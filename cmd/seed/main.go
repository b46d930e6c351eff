package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/oksasatya/smartagricare-api/config"
	"github.com/oksasatya/smartagricare-api/internal/application"
	"github.com/oksasatya/smartagricare-api/internal/container"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// Seeding never talks to the queue or the cache.
	cfg.RedisEnabled = false
	cfg.MailSendEnabled = false
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}
	defer c.Close()

	name := "Demo Farmer"
	email := "farmer@smartagricare.local"
	password := "password123"

	res, err := c.Accounts.Register(ctx, application.RegisterInput{Name: name, Email: email, Password: password})
	if errors.Is(err, application.ErrConflict) {
		fmt.Printf("user already seeded: email=%s\n", email)
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to seed user")
	}
	uid := res.User.ID
	fmt.Printf("seeded user: id=%d email=%s name=%s password=%s\n", uid, email, name, password)

	location := "Mysuru, Karnataka"
	if _, err := c.Accounts.UpdateProfile(ctx, uid, application.ProfileInput{Location: &location}); err != nil {
		logger.WithError(err).Fatal("failed to set profile")
	}

	id, err := c.Reports.Save(ctx, uid, application.ReportInput{
		Disease:    "Tomato Early Blight",
		Confidence: 88.4,
		Cause:      "Alternaria solani fungus, favoured by warm humid weather",
		Treatment:  []string{"Remove affected lower leaves", "Apply chlorothalonil or copper fungicide", "Mulch to stop soil splash"},
		Stores:     []string{"Raitha Samparka Kendra", "Green Agro Inputs"},
		ImageName:  "sample-tomato-leaf.jpg",
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to seed report")
	}
	fmt.Printf("seeded report: id=%d\n", id)
}
