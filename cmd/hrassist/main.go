package main

import (
	"github.com/joho/godotenv"

	"hrassist/internal/cli"
)

func main() {
	// Best effort: a missing .env just means the key comes from the shell.
	_ = godotenv.Load()

	cli.Execute()
}
