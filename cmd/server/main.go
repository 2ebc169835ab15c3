package main

import (
	"context"
	"log"
	"os"

	"github.com/tradexinvest/tradex/internal/buildinfo"
	"github.com/tradexinvest/tradex/internal/server"
	"github.com/tradexinvest/tradex/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
