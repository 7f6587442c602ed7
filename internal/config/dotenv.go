package config

import (
	"log"

	"github.com/joho/godotenv"
)

// loadDotenv loads a .env file when present so local development picks up
// credentials without exporting them in the shell.
func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}
