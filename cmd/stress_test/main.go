package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/inventory-ledger/internal/bootstrap"
	"github.com/rl1809/inventory-ledger/internal/config"
	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	categoryID := flag.Int64("category", 1, "category the stress item is created in")
	userID := flag.Int64("user", 1, "user recorded on each movement")
	initialStock := flag.Int("stock", 20, "initial stock of the stress item")
	totalRequests := flag.Int("requests", 50, "concurrent out-movements of quantity 1")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("warn")

	app, err := bootstrap.New(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build application: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	code := fmt.Sprintf("stress-%d", time.Now().UnixNano())
	req, err := domain.NewCreateItemRequest(*categoryID, "Stress item", code, *initialStock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "item request: %v\n", err)
		os.Exit(1)
	}
	item, err := app.Items.CreateItem(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create item: %v\n", err)
		os.Exit(1)
	}

	var successCount, soldOutCount, errorCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			movement, err := domain.NewTransactionRequest(item.ID, *userID, string(domain.DirectionOut), 1, nil)
			if err != nil {
				errorCount.Add(1)
				return
			}
			_, err = app.Transactions.Create(ctx, movement)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				fmt.Fprintf(os.Stderr, "create transaction: %v\n", err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	stock, err := app.Stock.GetStock(ctx, item.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stock: %v\n", err)
		os.Exit(1)
	}
	_, entries, err := app.Transactions.ListByItem(ctx, item.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list ledger: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Driver:           %s\n", cfg.Storage.Driver)
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Sold Out:         %d\n", soldOutCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Remaining Stock:  %d\n", stock)
	fmt.Printf("Ledger Entries:   %d\n", len(entries))
	fmt.Printf("Elapsed Time:     %v\n", elapsed)
	fmt.Println("==========================================")

	expectedSuccess := min(*initialStock, *totalRequests)
	ok := int(successCount.Load()) == expectedSuccess &&
		stock == *initialStock-expectedSuccess &&
		len(entries) == expectedSuccess &&
		errorCount.Load() == 0

	if ok {
		fmt.Println("PASS: stock equals initial stock minus recorded movements")
		return
	}
	fmt.Println("FAIL: stock and ledger disagree")
	os.Exit(1)
}
