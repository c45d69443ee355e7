package main

import (
	"github.com/draftsync/internal/cli"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cli.Execute()
}
