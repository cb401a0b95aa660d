package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sakkovic/winnersfrip/internal/config"
	kafkax "github.com/sakkovic/winnersfrip/internal/kafka"
	"github.com/sakkovic/winnersfrip/internal/notifier"
	"github.com/sakkovic/winnersfrip/internal/redisx"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	var mailer notifier.Mailer = notifier.LogMailer{}
	if cfg.SendgridAPIKey != "" {
		mailer = &notifier.SendgridMailer{
			APIKey:   cfg.SendgridAPIKey,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}
	}

	svc := &notifier.Service{
		Redis:  rdb,
		Mailer: mailer,
		Name:   "notifier",
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := atoiOr(os.Getenv("NOTIFIER_WORKERS"), 4)

	topics := []string{
		reservation.TopicReservationCreated,
		reservation.TopicReservationConfirmed,
		reservation.TopicReservationCancelled,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			if err := cons.Start(ctx, svc.Handle); err != nil {
				log.Printf("consumer %s exit: %v", topic, err)
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down notifier...")
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
