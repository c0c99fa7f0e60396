// sheetinit checks that the configured spreadsheet and tab exist and that
// the service account can read them. Run it once after provisioning.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	ledgersheets "github.com/claud0698/boulder-delivery-receipts/internal/ledger/sheets"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if cfg.Ledger.SpreadsheetID == "" {
		log.Println("ERROR: GOOGLE_SHEETS_ID env var is required")
		log.Println("  export GOOGLE_SHEETS_ID=<spreadsheet id from the sheet URL>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := ledgersheets.NewStore(ctx, ledgersheets.Config{
		SpreadsheetID:   cfg.Ledger.SpreadsheetID,
		SheetName:       cfg.Ledger.SheetName,
		CredentialsFile: cfg.Ledger.CredentialsFile,
		TailWindow:      cfg.Ledger.TailWindow,
	}, nil)
	if err != nil {
		log.Fatalf("opening sheets client: %v", err)
	}

	if err := store.Verify(ctx); err != nil {
		log.Fatalf("sheet check: FAIL (%v)", err)
	}
	log.Printf("sheet check: OK (tab %q)", cfg.Ledger.SheetName)

	recs, err := store.Latest(ctx, 1)
	if err != nil {
		log.Fatalf("reading last row: %v", err)
	}
	if len(recs) == 0 {
		log.Println("ledger is empty, next sequence number will be 1")
		return
	}
	log.Printf("last row: No %d, %s %s, %s", recs[0].SequenceNumber, recs[0].Date, recs[0].Time, recs[0].MaterialName)
}
