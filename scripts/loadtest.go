//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const baseURL = "http://localhost:8080"

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
}

func main() {
	rand.Seed(time.Now().UnixNano())

	fmt.Println("Carpool Booking Load Test")
	fmt.Println("=========================")

	fmt.Println("\n1. Creating test data...")
	riderTokens, driverToken, rideID := createTestData()
	if len(riderTokens) == 0 || rideID == "" {
		log.Fatal("Failed to create test data")
	}
	fmt.Printf("Created %d riders and 1 ride (%s)\n", len(riderTokens), rideID)

	// The interesting case: far more riders than seats, all booking at once.
	// The server must confirm exactly as many seats as the driver has.
	fmt.Println("\n2. Testing concurrent bookings (all riders, one ride)...")
	stats := testConcurrentBookings(riderTokens, rideID)
	printStats("Concurrent Bookings", stats)
	fmt.Printf("Confirmed bookings: %d (driver capacity is 4)\n", stats.SuccessRequests)

	fmt.Println("\n3. Testing availability reads (1000 requests, 50 concurrent)...")
	stats = testAvailabilityReads(rideID, 1000, 50)
	printStats("Availability Reads", stats)

	_ = driverToken
	fmt.Println("\nLoad test completed!")
}

func createTestData() ([]string, string, string) {
	// Driver account + profile
	driverToken, driverID := registerUser("driver")
	if driverToken == "" {
		return nil, "", ""
	}

	post(driverToken, "/v1/drivers", map[string]interface{}{
		"vehicle_number":  "KA01AB1234",
		"available_seats": 4,
	})

	// Approval normally needs an admin; the seed script flips it directly.
	// Here we assume the driver was pre-approved via scripts/seed_data.go
	// or a manual UPDATE.
	_ = driverID

	rideBody := post(driverToken, "/v1/rides", map[string]interface{}{
		"destination":    "Whitefield",
		"departure_at":   time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"price_per_seat": 120.0,
	})

	var ride struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rideBody, &ride)

	// Riders
	tokens := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		token, _ := registerUser("rider")
		if token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens, driverToken, ride.ID
}

func registerUser(role string) (string, string) {
	body, _ := json.Marshal(map[string]string{
		"phone": fmt.Sprintf("98%08d", rand.Intn(100000000)),
		"name":  fmt.Sprintf("LoadTest %s %d", role, rand.Intn(10000)),
		"role":  role,
	})
	resp, err := http.Post(baseURL+"/v1/users", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(data, &out)
	return out.Token, out.User.ID
}

func post(token, path string, payload map[string]interface{}) []byte {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return data
}

func testConcurrentBookings(tokens []string, rideID string) *Stats {
	stats := &Stats{MinLatency: int64(^uint64(0) >> 1)}
	var wg sync.WaitGroup

	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]interface{}{
				"ride_id": rideID,
				"seats":   1,
			})
			req, _ := http.NewRequest(http.MethodPost, baseURL+"/v1/bookings", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			start := time.Now()
			resp, err := http.DefaultClient.Do(req)
			recordLatency(stats, time.Since(start))

			atomic.AddInt64(&stats.TotalRequests, 1)
			if err != nil {
				atomic.AddInt64(&stats.FailedRequests, 1)
				return
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			if resp.StatusCode == http.StatusCreated {
				atomic.AddInt64(&stats.SuccessRequests, 1)
			} else {
				atomic.AddInt64(&stats.FailedRequests, 1)
			}
		}(token)
	}

	wg.Wait()
	return stats
}

func testAvailabilityReads(rideID string, total, concurrency int) *Stats {
	stats := &Stats{MinLatency: int64(^uint64(0) >> 1)}
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			resp, err := http.Get(baseURL + "/v1/rides/" + rideID + "/availability")
			recordLatency(stats, time.Since(start))

			atomic.AddInt64(&stats.TotalRequests, 1)
			if err != nil {
				atomic.AddInt64(&stats.FailedRequests, 1)
				return
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			if resp.StatusCode == http.StatusOK {
				atomic.AddInt64(&stats.SuccessRequests, 1)
			} else {
				atomic.AddInt64(&stats.FailedRequests, 1)
			}
		}()
	}

	wg.Wait()
	return stats
}

func recordLatency(stats *Stats, d time.Duration) {
	micros := d.Microseconds()
	atomic.AddInt64(&stats.TotalLatency, micros)
	for {
		cur := atomic.LoadInt64(&stats.MinLatency)
		if micros >= cur || atomic.CompareAndSwapInt64(&stats.MinLatency, cur, micros) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&stats.MaxLatency)
		if micros <= cur || atomic.CompareAndSwapInt64(&stats.MaxLatency, cur, micros) {
			break
		}
	}
}

func printStats(name string, stats *Stats) {
	avg := int64(0)
	if stats.TotalRequests > 0 {
		avg = stats.TotalLatency / stats.TotalRequests
	}
	fmt.Printf("%s: total=%d success=%d failed=%d avg=%dus min=%dus max=%dus\n",
		name, stats.TotalRequests, stats.SuccessRequests, stats.FailedRequests,
		avg, stats.MinLatency, stats.MaxLatency)
}
