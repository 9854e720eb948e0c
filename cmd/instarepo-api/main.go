package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/instarepo/instarepo-api/pkg/api"
)

func main() {
	app := api.NewApp()
	app.RunForever()
}
