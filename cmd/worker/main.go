// Worker consumes alert payloads from Kafka and POSTs them to the webhook.
// Set KAFKA_BROKERS, ALERT_KAFKA_TOPIC, KAFKA_GROUP_ID, and ALERT_WEBHOOK_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"insider-sentinel/monitor/internal/alert/webhook"
	"insider-sentinel/monitor/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.AlertKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.AlertWebhookURL == "" {
		log.Fatal("worker: ALERT_WEBHOOK_URL is required")
	}

	topic := cfg.AlertKafkaTopic
	if topic == "" {
		topic = "sentinel-alerts"
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "sentinel-alert-worker"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s), posting to %s", topic, groupID, cfg.AlertWebhookURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := webhook.PushJSON(pushCtx, cfg.AlertWebhookURL, msg.Value); err != nil {
			log.Printf("worker: webhook push failed: %v", err)
		}
		pushCancel()
	}
}
