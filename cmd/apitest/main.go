package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/model"
)

func main() {
	baseURL := flag.String("url", os.Getenv("MARKET_API_BASE_URL"), "matching engine base URL")
	marketID := flag.String("market", "default_market", "market to probe")
	limit := flag.Int("limit", 20, "trade window")
	orderID := flag.String("order", "", "order id to look up (optional)")
	flag.Parse()

	if *baseURL == "" {
		*baseURL = "http://localhost:8000"
	}

	client := api.NewClient(*baseURL, api.WithTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Test 1: Health
	fmt.Printf("=== Testing Health (%s) ===\n", client.BaseURL())
	health, err := client.Health(ctx)
	if err != nil {
		log.Fatalf("Health failed: %v", err)
	}
	fmt.Printf("Status: %s (healthy: %v)\n", health.Status, health.Healthy())

	// Test 2: Order book
	fmt.Printf("\n=== Testing GetOrderBook (%s) ===\n", *marketID)
	ob, err := client.GetOrderBook(ctx, *marketID)
	if err != nil {
		log.Fatalf("GetOrderBook failed: %v", err)
	}
	fmt.Printf("Depth: %d levels\n", ob.Depth())
	for _, side := range model.BookSides {
		levels := ob.Levels(side)
		fmt.Printf("  %-8s %d levels", side, len(levels))
		if len(levels) > 0 {
			fmt.Printf(", best %d cents x %d (%d orders)", levels[0].Price, levels[0].TotalQuantity, levels[0].OrderCount)
		}
		fmt.Println()
	}

	// Test 3: Trades
	fmt.Printf("\n=== Testing GetTrades (%s, limit %d) ===\n", *marketID, *limit)
	trades, err := client.GetTrades(ctx, *marketID, *limit)
	if err != nil {
		log.Fatalf("GetTrades failed: %v", err)
	}
	fmt.Printf("Fetched %d trades\n", len(trades))
	if head, ok := model.HeadTrade(trades); ok {
		fmt.Printf("Most recent: %s %s %d x %d at %s\n",
			head.TradeID, head.Side, head.Price, head.Quantity, head.Timestamp.Format(time.RFC3339))
	}

	// Test 4: Order lookup
	if *orderID != "" {
		fmt.Printf("\n=== Testing GetOrder (%s) ===\n", *orderID)
		o, err := client.GetOrder(ctx, *orderID)
		if err != nil {
			log.Fatalf("GetOrder failed: %v", err)
		}
		fmt.Printf("%s %s %s: %d/%d filled at %d cents, status %s\n",
			o.OrderID, o.OrderType, o.Side, o.FilledQuantity, o.Quantity, o.Price, o.Status)
	}

	fmt.Println("\n=== All API tests passed! ===")
}
