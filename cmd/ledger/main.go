// Command ledger dumps the prediction ledger as a table, for quick
// inspection without opening the CSV or the Telegram chat.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"VolSentinel/internal/config"
	"VolSentinel/internal/ledger"
	"VolSentinel/internal/model"
)

func main() {
	path := flag.String("ledger", "", "ledger CSV path (defaults to the configured one)")
	pendingOnly := flag.Bool("pending", false, "show only unresolved predictions")
	flag.Parse()

	_ = godotenv.Load()

	if *path == "" {
		cfgPath := "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		*path = cfg.Ledger.Path
	}

	lg, err := ledger.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load ledger: %v\n", err)
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Date", "Symbol", "Name", "Price", "IV", "Low", "High", "Act.High", "Act.Low", "Result")

	shown := 0
	for _, rec := range lg.Records() {
		if *pendingOnly && rec.Resolved() {
			continue
		}
		table.Append(
			rec.Date,
			rec.Symbol,
			rec.Name,
			fmt.Sprintf("%.2f", rec.Price),
			fmt.Sprintf("%.1f%%", rec.ImpliedVol*100),
			fmt.Sprintf("%.2f", rec.LowPred),
			fmt.Sprintf("%.2f", rec.HighPred),
			optCell(rec.ActualHigh),
			optCell(rec.ActualLow),
			resultCell(rec.Result),
		)
		shown++
	}
	table.Render()

	wins, resolved := lg.Stats()
	fmt.Printf("\n%d records (%d shown) | resolved %d, wins %d", lg.Len(), shown, resolved, wins)
	if resolved > 0 {
		fmt.Printf(" | win rate %.1f%%", lg.WinRate()*100)
	}
	fmt.Println()
}

func optCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func resultCell(r model.Result) string {
	if r == model.ResultPending {
		return "pending"
	}
	return string(r)
}
