// Package main is a load generator for a running server. It deals an
// all-human game so no model is ever called, floods it with chat
// through the REST bridge and counts the frames fanned back out to
// WebSocket subscribers.
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
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the load run.
type Config struct {
	BaseURL      string
	NumWatchers  int
	NumChatters  int
	ChatInterval time.Duration
	TestDuration time.Duration
}

// Stats tracks performance counters across all workers.
type Stats struct {
	ChatsSent      int64
	FramesReceived int64
	Errors         int64
	Latencies      []time.Duration
	mu             sync.Mutex
}

var chatLines = []string{
	"I still think the top row is ours.",
	"That last hint made no sense to me.",
	"Do not touch anything near the corner word.",
	"We are so far ahead it is not even funny.",
	"Somebody write these down.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	watchers := flag.Int("watchers", 20, "number of WebSocket spectators")
	chatters := flag.Int("chatters", 4, "number of concurrent chat posters")
	interval := flag.Duration("interval", 200*time.Millisecond, "chat interval per poster")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	config := Config{
		BaseURL:      *baseURL,
		NumWatchers:  *watchers,
		NumChatters:  *chatters,
		ChatInterval: *interval,
		TestDuration: *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("CLUELESS - Load Generator")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.BaseURL)
	fmt.Printf("Watchers: %d\n", config.NumWatchers)
	fmt.Printf("Chatters: %d\n", config.NumChatters)
	fmt.Printf("Interval: %v\n", config.ChatInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	gameID, seatIDs, err := createGame(config.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create load game: %v", err)
	}
	fmt.Printf("\nCreated game %s with %d seats\n", gameID, len(seatIDs))

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runLoad(ctx, config, gameID, seatIDs)
	printResults(stats, config)
}

// createGame deals an all-human game over the REST bridge and returns
// its id plus the seat ids to post chat from.
func createGame(baseURL string) (string, []string, error) {
	body := `{"seats":[
		{"name":"LoadRedSpy","kind":"human","team":"red","spymaster":true},
		{"name":"LoadRedOp","kind":"human","team":"red"},
		{"name":"LoadBlueSpy","kind":"human","team":"blue","spymaster":true},
		{"name":"LoadBlueOp","kind":"human","team":"blue"}
	]}`
	resp, err := http.Post(baseURL+"/api/game/create", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("create returned %d", resp.StatusCode)
	}

	var snapshot struct {
		ID    string `json:"id"`
		Seats []struct {
			ID string `json:"id"`
		} `json:"seats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return "", nil, err
	}
	seatIDs := make([]string, 0, len(snapshot.Seats))
	for _, s := range snapshot.Seats {
		seatIDs = append(seatIDs, s.ID)
	}
	return snapshot.ID, seatIDs, nil
}

func runLoad(ctx context.Context, config Config, gameID string, seatIDs []string) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}

	var wg sync.WaitGroup

	fmt.Println("\nStarting workers...")

	for i := 0; i < config.NumWatchers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWatcher(ctx, id, config, gameID, stats)
		}(i)

		// Stagger starts to avoid a thundering herd.
		time.Sleep(10 * time.Millisecond)
	}

	for i := 0; i < config.NumChatters; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runChatter(ctx, id, config, gameID, seatIDs, stats)
		}(i)
	}

	fmt.Printf("All %d watchers and %d chatters started\n\n", config.NumWatchers, config.NumChatters)

	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-progress.C:
				sent := atomic.LoadInt64(&stats.ChatsSent)
				recv := atomic.LoadInt64(&stats.FramesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%d Frames=%d Errors=%d\n", sent, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

// runWatcher holds one WebSocket subscription and counts every frame
// the hub fans out to it.
func runWatcher(ctx context.Context, id int, config Config, gameID string, stats *Stats) {
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("game_id", gameID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Printf("Watcher %d: connection failed: %v", id, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		atomic.AddInt64(&stats.FramesReceived, 1)
	}
}

// runChatter posts chat from rotating seats at the configured
// interval, timing each round trip.
func runChatter(ctx context.Context, id int, config Config, gameID string, seatIDs []string, stats *Stats) {
	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(config.ChatInterval)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seat := seatIDs[(id+n)%len(seatIDs)]
			line := chatLines[rand.Intn(len(chatLines))]
			payload, _ := json.Marshal(map[string]string{
				"game_id": gameID,
				"seat_id": seat,
				"message": fmt.Sprintf("%s (#%d)", line, n),
			})
			n++

			start := time.Now()
			resp, err := client.Post(config.BaseURL+"/api/game/chat", "application/json", bytes.NewReader(payload))
			latency := time.Since(start)
			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}

			atomic.AddInt64(&stats.ChatsSent, 1)
			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.ChatsSent)
	recv := atomic.LoadInt64(&stats.FramesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Chats sent:      %d\n", sent)
	fmt.Printf("Frames received: %d\n", recv)
	fmt.Printf("Errors:          %d\n", errs)
	fmt.Printf("Error rate:      %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:      %.2f chats/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		min, max := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		avg := total / time.Duration(len(stats.Latencies))

		fmt.Println("\nChat latency:")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0:
		fmt.Println("PASSED: no errors under load")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors detected")
	default:
		fmt.Println("FAILED: high error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"chats_sent":      sent,
		"frames_received": recv,
		"errors":          errs,
		"chats_per_sec":   throughput,
		"config": map[string]interface{}{
			"watchers": config.NumWatchers,
			"chatters": config.NumChatters,
			"interval": config.ChatInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("load_test_results.json", jsonData, 0644)
	fmt.Println("\nResults saved to load_test_results.json")
}
