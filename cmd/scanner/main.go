package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"campusattend/internal/config"
)

// Scanner gateway: bridges an RFID reader to the attendance API. Each line
// on stdin is one card swipe; the gateway posts it as a punch and prints the
// API's verdict. The scanner id comes from SCANNER_ID, matching the room it
// is mounted in.
func main() {
	cfg := config.Load()
	if cfg.ScannerID == "" {
		log.Fatal("SCANNER_ID is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	log.Printf("scanner %s feeding %s; reading card numbers from stdin", cfg.ScannerID, cfg.APIBaseURL)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if card := strings.TrimSpace(scanner.Text()); card != "" {
				lines <- card
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("scanner gateway exiting")
			return
		case card, ok := <-lines:
			if !ok {
				return
			}
			if err := postPunch(ctx, client, cfg.APIBaseURL, card, cfg.ScannerID); err != nil {
				log.Printf("punch for card %s failed: %v", card, err)
			}
		}
	}
}

func postPunch(ctx context.Context, client *http.Client, baseURL, cardNumber, scannerID string) error {
	payload, err := json.Marshal(map[string]string{
		"card_number": cardNumber,
		"scanner_id":  scannerID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/punch", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	log.Printf("card %s queued: %s", cardNumber, strings.TrimSpace(string(body)))
	return nil
}
