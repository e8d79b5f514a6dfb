// Package main provides agentsim, a simulated nginx agent for manual and
// end-to-end testing. It redeems a registration token against a running
// fleet manager, then submits heartbeat metrics and logs on an interval.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"time"
)

type registerResponse struct {
	Agent struct {
		ID          string `json:"id"`
		Environment string `json:"environment"`
	} `json:"agent"`
	APIKey string `json:"api_key"`
}

func main() {
	serverURL := flag.String("server", envOr("FLEET_SERVER_URL", "http://localhost:8080"), "fleet manager base URL")
	token := flag.String("token", os.Getenv("FLEET_REGISTRATION_TOKEN"), "registration token (required)")
	hostname := flag.String("hostname", defaultHostname(), "hostname to register as")
	interval := flag.Duration("interval", 30*time.Second, "metric submission interval")
	flag.Parse()

	if *token == "" {
		log.Fatal("registration token required (-token or FLEET_REGISTRATION_TOKEN)")
	}

	agent, err := register(*serverURL, *token, *hostname)
	if err != nil {
		log.Fatalf("registration failed: %v", err)
	}
	log.Printf("registered as agent %s (environment %s)", agent.Agent.ID, agent.Agent.Environment)

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		if err := postMetric(client, *serverURL, agent); err != nil {
			log.Printf("metric submission failed: %v", err)
		}
		time.Sleep(*interval)
	}
}

func register(serverURL, token, hostname string) (*registerResponse, error) {
	body, err := json.Marshal(map[string]any{
		"registration_token": token,
		"hostname":           hostname,
		"ip_address":         "127.0.0.1",
		"version":            "agentsim/1.0",
		"os_info": map[string]any{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(serverURL+"/register/agent", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func postMetric(client *http.Client, serverURL string, agent *registerResponse) error {
	body, err := json.Marshal(map[string]any{
		"metric_type": "system",
		"value": map[string]any{
			"cpu_percent":        rand.Float64() * 100, //nolint:gosec
			"memory_percent":     rand.Float64() * 100, //nolint:gosec
			"active_connections": rand.Intn(500),       //nolint:gosec
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/agents/%s/metrics", serverURL, agent.Agent.ID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", agent.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	log.Printf("metric submitted (status %d)", resp.StatusCode)
	return nil
}

func defaultHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "agentsim"
	}
	return h
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
