package main

import (
	"log"
	"net/http"
	"time"

	"storyswap/internal/alert"
	"storyswap/internal/auth"
	"storyswap/internal/catalog"
	"storyswap/internal/config"
	"storyswap/internal/db"
	"storyswap/internal/httpapi"
	"storyswap/internal/lending"
	"storyswap/internal/mail"
	"storyswap/internal/network"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Println("=== STORYSWAP BACKEND STARTING ===")

	client, err := network.NewClient(cfg.OutboundProxy, 30*time.Second)
	if err != nil {
		log.Fatalf("outbound client: %v", err)
	}

	store, err := db.Open(cfg.StoreDriver, cfg.StoreDSN())
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()
	log.Printf("store: %s (%s)", cfg.StoreDriver, cfg.StoreDSN())

	alerts := alert.New(cfg.AlertBotToken, cfg.AlertChatID)

	sender := mail.NewSendGrid(client, cfg.SendGridAPIKey, cfg.FromEmail)
	lend := lending.NewService(sender, alerts, cfg.BaseURL)
	cat := catalog.NewService(store)
	verifier := auth.NewHTTPVerifier(client, cfg.IdentityURL)

	api := httpapi.New(cfg, cat, lend, verifier, sender)

	log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, api.Handler()); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
