// Command client is a CLI smoke-test tool that exercises the gateway's
// HTTP surface: placing and cancelling orders against a running gateway.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

func main() {
	gatewayAddr := flag.String("gateway", "http://127.0.0.1:8080", "Address of the API gateway")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel']")

	userID := flag.Uint64("user", 1, "User id (place)")
	side := flag.Int("side", 1, "Order side: 1=buy, 2=sell (place)")
	price := flag.Uint64("price", 10000, "Limit price (place)")
	quantity := flag.Uint64("qty", 1, "Quantity (place)")

	orderID := flag.Uint64("order", 0, "Order id to cancel (cancel)")

	flag.Parse()

	var (
		method string
		body   any
	)

	switch *action {
	case "place":
		method = http.MethodPost
		body = map[string]any{
			"user_id":  *userID,
			"side":     *side,
			"price":    *price,
			"quantity": *quantity,
		}
	case "cancel":
		if *orderID == 0 {
			fmt.Fprintln(os.Stderr, "Error: -order is required for cancel")
			os.Exit(1)
		}
		method = http.MethodDelete
		body = map[string]any{"order_id": *orderID}
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	if err := sendOrder(*gatewayAddr, method, body); err != nil {
		log.Fatalf("request failed: %v", err)
	}
}

func sendOrder(gatewayAddr, method string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(method, gatewayAddr+"/orders", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("-> %s %s: %d %s\n", method, gatewayAddr+"/orders", resp.StatusCode, respBody)
	return nil
}
