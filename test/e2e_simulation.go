package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	baseURL = "http://localhost:8095/api/v1"
)

// Helper to check errors
func check(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func postJSON(url string, payload interface{}) *http.Response {
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	check(err)
	return resp
}

func main() {
	log.Println("=== Starting E2E Integration Test (Simulating AR Client) ===")

	// 1. Simuler la perte de réseau avant de créer le signalement
	log.Println("1. Going offline...")
	resp := postJSON(fmt.Sprintf("%s/network", baseURL), map[string]bool{"online": false})
	resp.Body.Close()

	// 2. Créer un signalement: doit réussir même hors-ligne (durabilité locale)
	log.Println("2. Creating report while offline...")
	reportPayload := map[string]interface{}{
		"latitude":     4.055,
		"longitude":    9.705,
		"altitude":     12.5,
		"message_text": "E2E Test: broken streetlight reported via simulation script.",
		"category":     "infrastructure",
		"severity":     "MEDIUM",
	}
	resp = postJSON(fmt.Sprintf("%s/anchors", baseURL), reportPayload)
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Failed to create report: %s - %s", resp.Status, string(body))
	}

	var createResp struct {
		Report map[string]interface{} `json:"report"`
		Queued bool                   `json:"queued"`
	}
	json.NewDecoder(resp.Body).Decode(&createResp)
	resp.Body.Close()

	reportID := createResp.Report["id"].(string)
	if !createResp.Queued {
		log.Fatalf("FAILURE: offline creation should be queued, got queued=false")
	}
	log.Printf("   -> Report %s created and queued for sync.", reportID)

	// 3. Vérifier le compteur pending
	log.Println("3. Checking sync status...")
	statusResp, err := http.Get(fmt.Sprintf("%s/sync/status", baseURL))
	check(err)
	var status map[string]interface{}
	json.NewDecoder(statusResp.Body).Decode(&status)
	statusResp.Body.Close()
	log.Printf("   -> Pending: %v", status["pending_count"])

	// 4. Revenir en ligne: le coordinateur doit vider la file
	log.Println("4. Going back online, waiting for sync...")
	resp = postJSON(fmt.Sprintf("%s/network", baseURL), map[string]bool{"online": true})
	resp.Body.Close()
	time.Sleep(2 * time.Second)

	// 5. Le signalement doit être visible dans la requête de proximité
	log.Println("5. Querying nearby reports...")
	nearbyResp, err := http.Get(fmt.Sprintf("%s/anchors/nearby?lat=4.055&lon=9.705&radius=200", baseURL))
	check(err)
	defer nearbyResp.Body.Close()

	var nearby []map[string]interface{}
	json.NewDecoder(nearbyResp.Body).Decode(&nearby)

	found := false
	for _, r := range nearby {
		if r["id"] == reportID {
			found = true
			log.Printf("   -> Found report: %s | Status: %s | Geohash: %s", r["message_text"], r["status"], r["geohash"])
			break
		}
	}
	if !found {
		log.Fatalf("FAILURE: Report %s not found in nearby results.", reportID)
	}

	// 6. Upvote (meilleur-effort, exige la connectivité)
	log.Println("6. Upvoting the report...")
	resp = postJSON(fmt.Sprintf("%s/anchors/%s/upvote", baseURL, reportID), nil)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Failed to upvote: %s - %s", resp.Status, string(body))
	}
	resp.Body.Close()

	log.Println("SUCCESS: E2E Integration Test Passed!")
}
