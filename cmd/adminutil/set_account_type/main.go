package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/config"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
)

func main() {
	email := flag.String("email", "", "Email of the user to change")
	accountType := flag.String("type", "", "New account type: freelancer or client")
	flag.Parse()

	at := models.AccountType(*accountType)
	if *email == "" || !at.Valid() {
		log.Fatalf("usage: go run ./cmd/adminutil/set_account_type -email user@example.com -type client")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store, zap.NewNop())
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	u, err := st.Update(ctx, *email, func(u *models.User) error {
		u.AccountType = at
		return nil
	})
	if err != nil {
		log.Fatalf("failed to update %s: %v", *email, err)
	}

	fmt.Printf("User %s is now a %s.\n", u.Email, u.AccountType)
}
