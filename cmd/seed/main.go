// seed inserts sample behavioral events for local testing of windowed
// queries. Idempotent: skips inserts when the seed subject already has
// unconsumed events in the last 24h.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"insider-sentinel/monitor/internal/config"
	"insider-sentinel/monitor/internal/db"
	"insider-sentinel/monitor/internal/event/domain"
	eventrepo "insider-sentinel/monitor/internal/event/repository"

	"github.com/google/uuid"
)

const seedSubjectID = "EMP-SEED"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := eventrepo.NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()
	windowStart := now.Add(-24 * time.Hour)

	n, err := repo.CountUnconsumed(ctx, seedSubjectID, domain.CategoryLowSensitivity, windowStart)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if n > 0 {
		log.Println("Seed already applied (EMP-SEED has recent events). Skipping.")
		os.Exit(0)
	}

	appSession := uuid.NewString()
	deviceSession := uuid.NewString()
	events := []*domain.Event{
		{Category: domain.CategoryLowSensitivity, Label: "public_notes.txt", Kind: domain.KindFileActivity, OccurredAt: now.Add(-20 * time.Hour)},
		{Category: domain.CategoryLowSensitivity, Label: "readme.md", Kind: domain.KindFileActivity, OccurredAt: now.Add(-6 * time.Hour)},
		{Category: domain.CategoryHighSensitivity, Label: "confidential_report.txt", Kind: domain.KindFileActivity, OccurredAt: now.Add(-3 * time.Hour)},
		{Category: domain.CategoryUnauthorizedApp, Label: "solitaire", Kind: domain.KindAppFocus, SessionID: &appSession, OccurredAt: now.Add(-2 * time.Hour)},
		{Category: domain.CategoryRemovableStorage, Label: "usb-kingston", Kind: domain.KindDeviceAttach, SessionID: &deviceSession, OccurredAt: now.Add(-time.Hour)},
	}

	for _, e := range events {
		e.SubjectID = seedSubjectID
		e.DeviceName = cfg.Device()
		if err := repo.Append(ctx, e); err != nil {
			log.Fatalf("seed insert %q: %v", e.Label, err)
		}
	}
	log.Printf("Seeded %d events for %s.", len(events), seedSubjectID)
}
