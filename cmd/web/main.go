package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sqeprep/internal/app"
	"sqeprep/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env")
	}
	cfg := app.LoadConfig()

	var dbConn *sql.DB
	switch cfg.DBDriver {
	case "memory":
		// All stores run in memory; nothing to open.
	case "sqlite", "postgres":
		conn, err := db.OpenWithConfig(context.Background(), db.Driver(cfg.DBDriver), cfg.DBDSN, db.Config{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
		})
		if err != nil {
			log.Printf("database error: %v", err)
			os.Exit(1)
		}
		defer conn.Close()
		dbConn = conn
	default:
		log.Printf("unknown DB_DRIVER %q", cfg.DBDriver)
		os.Exit(1)
	}

	r := app.NewRouter(cfg, dbConn)

	log.Printf("sqeprep web listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
