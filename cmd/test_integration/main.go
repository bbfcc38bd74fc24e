package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

// Smoke test against a running server backed by a live Memgraph: writes a
// small network, refreshes the snapshot and exercises each analysis route.
func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	suffix := fmt.Sprintf("%d", time.Now().Unix())
	alice := "Alice Test " + suffix
	bob := "Bob Test " + suffix
	press := "Test Press " + suffix

	// 1. Create nodes and edges
	fmt.Println("1. Creating nodes and edges...")
	nodes := []map[string]string{
		{"name": alice, "type": "person"},
		{"name": bob, "type": "person"},
		{"name": press, "type": "institution", "subtype": "publisher"},
	}
	for _, n := range nodes {
		if !sendRequest("POST", "/api/nodes", n, http.StatusCreated) {
			fmt.Println("FAILED: Create node")
			os.Exit(1)
		}
	}
	edges := []map[string]string{
		{"source": alice, "target": bob, "type": "personal"},
		{"source": bob, "target": press, "type": "affiliation"},
	}
	for _, e := range edges {
		if !sendRequest("POST", "/api/edges", e, http.StatusCreated) {
			fmt.Println("FAILED: Create edge")
			os.Exit(1)
		}
	}
	fmt.Println("PASSED: Create nodes and edges")

	// 2. Refresh snapshot so analysis sees the writes
	fmt.Println("2. Refreshing snapshot...")
	if !sendRequest("POST", "/api/refresh", map[string]string{}, http.StatusOK) {
		fmt.Println("FAILED: Refresh")
		os.Exit(1)
	}
	fmt.Println("PASSED: Refresh")

	// 3. Shortest path Alice -> Press (through Bob)
	fmt.Println("3. Shortest path...")
	path := fmt.Sprintf("/api/paths/shortest?start=%s&end=%s", urlQuery(alice), urlQuery(press))
	if !sendRequest("GET", path, nil, http.StatusOK) {
		fmt.Println("FAILED: Shortest path")
		os.Exit(1)
	}
	fmt.Println("PASSED: Shortest path")

	// 4. Communities
	fmt.Println("4. Communities...")
	if !sendRequest("GET", "/api/communities?seed=42", nil, http.StatusOK) {
		fmt.Println("FAILED: Communities")
		os.Exit(1)
	}
	fmt.Println("PASSED: Communities")

	// 5. Visibility with a subtype filter reaching through Bob
	fmt.Println("5. Visibility...")
	visibility := map[string]interface{}{
		"explorer": map[string]interface{}{
			"anchors":       []string{alice},
			"visible_nodes": []string{alice},
			"mode":          "shortest",
		},
		"filter": map[string]interface{}{
			"kinds":    []string{"person"},
			"subtypes": []string{"publisher"},
			"mode":     "or",
		},
	}
	if !sendRequest("POST", "/api/visibility", visibility, http.StatusOK) {
		fmt.Println("FAILED: Visibility")
		os.Exit(1)
	}
	fmt.Println("PASSED: Visibility")
}

func urlQuery(s string) string {
	return url.QueryEscape(s)
}

func sendRequest(method, endpoint string, payload interface{}, wantStatus int) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
