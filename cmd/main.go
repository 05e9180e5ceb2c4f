package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"CasinoMassProgram/internal/appmanager"
	"CasinoMassProgram/internal/db"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("[main] no .env file loaded: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), os.Getenv("DB_SSLMODE"))
	authDB, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("[main] failed to open database: %v", err)
	}
	defer authDB.Close()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("[main] failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "./migrations"); err != nil {
		log.Fatalf("[main] migrations failed: %v", err)
	}

	appmanager.SetDB(authDB)
	appmanager.SetPgxPool(pool)

	configs, err := appmanager.LoadServiceSequence("services.yaml")
	if err != nil {
		log.Fatalf("[main] failed to load service sequence: %v", err)
	}

	am := appmanager.NewAppManager()
	am.AutoRegisterServices(configs)
	if err := am.StartAll(); err != nil {
		log.Fatalf("[main] startup failed: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down")
	if err := am.StopAll(); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}
