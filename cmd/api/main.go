package main

import (
	"log"
	"net/http"

	"github.com/Pratyush-PT/EASY-Apply/internal/server"
)

// @title EASY-Apply API
// @version 1.0
// @description Campus placement portal: students browse postings, mark interest and apply; admins post jobs and review applications.
// @BasePath /api/v1
func main() {
	srv := server.NewServer()

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %s", err)
	}
}
