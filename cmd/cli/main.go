package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Target name (e.g., home-connection): ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("A name is required.")
		return
	}

	fmt.Print("Address to measure against (e.g., https://example.com): ")
	addr, _ := reader.ReadString('\n')
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, "://") {
		addr = "https://" + addr
	}
	if _, err := url.ParseRequestURI(addr); err != nil {
		fmt.Println("Invalid address.")
		return
	}

	body, _ := json.Marshal(map[string]string{"name": name, "address": addr})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/targets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Added! Check the API logs and GET /api/targets.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
