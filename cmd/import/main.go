package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/aptscope/aptscope-backend/internal/app"
	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/shutdown"
)

func main() {
	var (
		file = flag.String("file", "", "path to a MOLIT portal workbook (.xlsx)")
		kind = flag.String("kind", "sale", "sheet layout, sale or rent")
	)
	flag.Parse()

	if *file == "" {
		fmt.Println("usage: import -file <workbook.xlsx> [-kind sale|rent]")
		os.Exit(1)
	}
	parsedKind, ok := types.ParseTradeKind(*kind)
	if !ok {
		fmt.Printf("unknown kind %q (want sale or rent)\n", *kind)
		os.Exit(1)
	}

	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	var run *types.CollectionRun
	switch parsedKind {
	case types.TradeSale:
		run, err = application.Services.Ingest.ImportSalesWorkbook(ctx, *file)
	default:
		run, err = application.Services.Ingest.ImportRentsWorkbook(ctx, *file)
	}
	if err != nil {
		fmt.Printf("import %s: %v\n", *file, err)
		os.Exit(1)
	}

	fmt.Printf("imported %s: fetched=%d saved=%d skipped=%d\n", run.Kind, run.Fetched, run.Saved, run.Skipped)
}
