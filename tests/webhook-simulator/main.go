package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/petmat/checkout-service/internal/gateway"
)

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:9000/webhooks/payment", "webhook endpoint")
	secret := flag.String("secret", "whsec_test", "webhook signing secret")
	interval := flag.Duration("interval", 2*time.Second, "time between deliveries")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}

	ticker := time.NewTicker(*interval)
	for {
		select {
		case <-ticker.C:
			paymentID := strconv.Itoa(rand.Intn(99999999))
			// every fifth delivery carries a bad signature to exercise rejection
			tamper := rand.Intn(5) == 0
			deliver(client, *url, *secret, paymentID, tamper)
		case <-ctx.Done():
			return
		}
	}
}

func deliver(client *http.Client, url, secret, paymentID string, tamper bool) {
	var body webhookBody
	body.Type = "payment"
	body.Data.ID = paymentID
	data, _ := json.Marshal(body)

	requestID := strconv.FormatInt(time.Now().UnixNano(), 36)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	signingSecret := secret
	if tamper {
		signingSecret = secret + "-tampered"
	}
	v1 := gateway.SignManifest(signingSecret, requestID, paymentID, ts)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		log.Println("failed to build request:", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-request-id", requestID)
	req.Header.Set("x-signature", fmt.Sprintf("ts=%s,v1=%s", ts, v1))

	resp, err := client.Do(req)
	if err != nil {
		log.Println("delivery failed:", err)
		return
	}
	resp.Body.Close()
	log.Println("payment", paymentID, "tampered:", tamper, "->", resp.Status)
}
