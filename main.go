package main

import (
	"github.com/joho/godotenv"

	"github.com/sqanatoliy/jobs-scraper/internal/cli"
	"github.com/sqanatoliy/jobs-scraper/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	cli.Execute()
}
