package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cargodocs/internal/config"
	"cargodocs/internal/erp"
	"cargodocs/internal/notify"
	"cargodocs/internal/pipeline"
	"cargodocs/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "ocr:process":
		engine := pipeline.NewEngine(cfg, erp.NewClient(cfg, &http.Client{}), notify.LogMailer{}, db)
		must(engine.Run(context.Background()))
		fmt.Println("обработка завершена")
	case "erp:lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		bill := fs.String("bill", "", "bill of lading number")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*bill) == "" {
			must(fmt.Errorf("--bill is required"))
		}
		client := erp.NewClient(cfg, &http.Client{})
		transactions, ok := client.TransactionsByBillOfLading(context.Background(), *bill)
		if !ok {
			must(fmt.Errorf("ЦУП недоступен"))
		}
		if len(transactions) == 0 {
			fmt.Println("сделки не найдены")
			return
		}
		for _, transaction := range transactions {
			containers, _ := client.ContainersByTransaction(context.Background(), transaction)
			fmt.Printf("%s: %s\n", transaction, strings.Join(containers, ", "))
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		limit := fs.Int("limit", 0, "max runs, newest first (0 = all)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		runs, err := db.ListRuns(*limit)
		must(err)
		must(pipeline.ExportRunsToXLSX(runs, *out))
		fmt.Printf("выгружено запусков: %d -> %s\n", len(runs), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`usage: cargodocs <command> [flags]

commands:
  ocr:process                      process staged OCR folders once
  erp:lookup --bill <number>       resolve transactions and containers for a bill of lading
  export:xlsx --out <path>         export the run journal to xlsx`)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
