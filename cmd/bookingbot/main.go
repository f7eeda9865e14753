package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Tokens and calendar credentials commonly live in a local .env
	// during development; a missing file is not an error.
	godotenv.Load()

	Execute()
}
