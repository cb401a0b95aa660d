package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/sakkovic/winnersfrip/internal/auth"
	"github.com/sakkovic/winnersfrip/internal/cart"
	"github.com/sakkovic/winnersfrip/internal/catalog"
	"github.com/sakkovic/winnersfrip/internal/config"
	"github.com/sakkovic/winnersfrip/internal/httpx"
	"github.com/sakkovic/winnersfrip/internal/images"
	kafkax "github.com/sakkovic/winnersfrip/internal/kafka"
	"github.com/sakkovic/winnersfrip/internal/postgres"
	"github.com/sakkovic/winnersfrip/internal/redisx"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, reservation.TopicReservationCreated, 1024)
	pCreated.Start(ctx)
	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, reservation.TopicReservationConfirmed, 1024)
	pConfirmed.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, reservation.TopicReservationCancelled, 1024)
	pCancelled.Start(ctx)

	// Firebase identity
	var fbOpts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		fbOpts = append(fbOpts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}
	app, err := firebase.NewApp(ctx, nil, fbOpts...)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	verifier, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}

	// Image storage (optional)
	var uploader *images.Uploader
	if cfg.ImageBucket != "" {
		gcs, err := storage.NewClient(ctx, fbOpts...)
		if err != nil {
			log.Fatalf("storage client: %v", err)
		}
		defer gcs.Close()
		uploader = &images.Uploader{Client: gcs, Bucket: cfg.ImageBucket}
	}

	// Repos and domain services
	products := &catalog.Repo{DB: db}
	reservations := &reservation.Repo{DB: db}
	carts := &cart.RedisStore{RDB: rdb}

	orchestrator := &reservation.Orchestrator{
		Store:   reservations,
		Carts:   carts,
		Events:  pCreated,
		Service: cfg.ServiceName,
	}
	lifecycle := &reservation.Controller{
		Store:         reservations,
		EventsConfirm: pConfirmed,
		EventsCancel:  pCancelled,
		Service:       cfg.ServiceName,
	}

	// Router
	router := httpx.NewRouter()
	router.Use((&auth.Middleware{Verifier: verifier}).Handler)

	(&httpx.ShopHandler{Products: products}).Register(router)
	(&httpx.CartHandler{Products: products, Carts: carts}).Register(router)
	(&httpx.CheckoutHandler{Carts: carts, Orchestrator: orchestrator}).Register(router)
	(&httpx.AdminHandler{
		Products:     products,
		Reservations: reservations,
		Lifecycle:    lifecycle,
		Uploader:     uploader,
		Redis:        rdb,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pConfirmed, pCancelled} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCreated, pConfirmed, pCancelled} {
		p.WaitClosed()
	}
}
