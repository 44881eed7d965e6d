package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aptscope/aptscope-backend/internal/app"
	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/shutdown"
)

type cityList []string

func (l *cityList) String() string { return strings.Join(*l, ",") }
func (l *cityList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var cities cityList
	var (
		task  = flag.String("task", "sales", "one of regions, apartments, details, sales, rents")
		from  = flag.String("from", "", "first contract month YYYYMM (sales, rents)")
		to    = flag.String("to", "", "last contract month YYYYMM, defaults to -from")
		limit = flag.Int("limit", 0, "max apartments to enrich (details), 0 for all")
	)
	flag.Var(&cities, "city", "city name to load region codes for (repeatable)")
	flag.Parse()

	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	collectorSvc := application.Services.Collector
	if collectorSvc == nil {
		fmt.Println("MOLIT_SERVICE_KEY is not configured; nothing to collect")
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if len(cities) == 0 {
		cities = cityList{"서울특별시"}
	}
	if *to == "" {
		*to = *from
	}

	var run *types.CollectionRun
	switch *task {
	case "regions":
		run, err = collectorSvc.CollectRegions(ctx, cities)
	case "apartments":
		run, err = collectorSvc.CollectApartments(ctx)
	case "details":
		run, err = collectorSvc.CollectDetails(ctx, *limit)
	case "sales":
		run, err = collectorSvc.CollectSales(ctx, *from, *to)
	case "rents":
		run, err = collectorSvc.CollectRents(ctx, *from, *to)
	default:
		fmt.Printf("unknown task %q\n", *task)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("collect %s: %v\n", *task, err)
		os.Exit(1)
	}

	fmt.Printf("collected %s: fetched=%d saved=%d skipped=%d\n", run.Kind, run.Fetched, run.Saved, run.Skipped)
}
