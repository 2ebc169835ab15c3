// Command createadmin provisions an admin account interactively. It reads
// the same configuration sources as the server (JSON file, TRADEX_* env
// and the -d flag for the DSN).
package main

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tradexinvest/tradex/internal/buildinfo"
	"github.com/tradexinvest/tradex/internal/cli"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/config"
	"github.com/tradexinvest/tradex/internal/server/repositories/repomanager"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	creator := cli.NewAdminCreator(rm.Accounts(db), auth.NewPasswordHasher(0))
	if err := creator.Run(ctx, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
