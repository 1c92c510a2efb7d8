package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8080"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numGroups    = 40
	numUsers     = 400
)

var messageTypes = []string{"text", "image", "video", "audio", "sticker", "document"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type endpointStats struct {
	count     int
	errors    int
	latencies []time.Duration
}

func (s *endpointStats) add(r result) {
	s.count++
	if r.err {
		s.errors++
	}
	s.latencies = append(s.latencies, r.latency)
}

func main() {
	fmt.Println("=== ChatPulse Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Groups: %d | Users: %d\n\n", numGroups, numUsers)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Seed data with event ingestion
	fmt.Println("\n--- Phase 1: Seeding events (POST /api/events) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doPostEvent(rng)
	})

	// Wait for a flush cycle
	fmt.Println("\nWaiting 6s for a flush cycle...")
	time.Sleep(6 * time.Second)

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (70% POST, 30% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.70:
			return doPostEvent(rng)
		case r < 0.80:
			return doGetGroups()
		case r < 0.87:
			return doGetGroup(rng)
		case r < 0.94:
			return doGetUser(rng)
		default:
			return doGetOverview()
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doPostEvent(rng)
		case r < 0.40:
			return doGetGroups()
		case r < 0.60:
			return doGetGroup(rng)
		case r < 0.80:
			return doGetUser(rng)
		default:
			return doGetOverview()
		}
	})
}

// runPhase hammers the server from numWorkers goroutines until the
// deadline. Each worker keeps its own tally, so the hot loop never
// contends on anything shared; tallies are merged once at the end.
func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	deadline := time.Now().Add(duration)
	tallies := make([]map[string]*endpointStats, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		tally := make(map[string]*endpointStats)
		tallies[i] = tally
		wg.Add(1)
		go func(seed int64, tally map[string]*endpointStats) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for time.Now().Before(deadline) {
				r := workFn(rng)
				s := tally[r.endpoint]
				if s == nil {
					s = &endpointStats{}
					tally[r.endpoint] = s
				}
				s.add(r)
			}
		}(rand.Int63()+int64(i), tally)
	}
	wg.Wait()

	merged := make(map[string]*endpointStats)
	for _, tally := range tallies {
		for ep, s := range tally {
			agg := merged[ep]
			if agg == nil {
				agg = &endpointStats{}
				merged[ep] = agg
			}
			agg.count += s.count
			agg.errors += s.errors
			agg.latencies = append(agg.latencies, s.latencies...)
		}
	}

	printSummary(merged, duration)
}

func printSummary(byEndpoint map[string]*endpointStats, duration time.Duration) {
	endpoints := make([]string, 0, len(byEndpoint))
	for ep := range byEndpoint {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	line := "  " + strings.Repeat("-", 88)
	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println(line)

	var totalReqs, totalErrs int
	for _, ep := range endpoints {
		s := byEndpoint[ep]
		totalReqs += s.count
		totalErrs += s.errors

		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(mean(s.latencies)),
			fmtDur(quantile(s.latencies, 0.50)),
			fmtDur(quantile(s.latencies, 0.95)),
			fmtDur(quantile(s.latencies, 0.99)))
	}

	fmt.Println(line)
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalReqs, totalErrs, errorRate(totalErrs, totalReqs), float64(totalReqs)/duration.Seconds())
}

func groupJID(n int) string {
	return fmt.Sprintf("12036304%04d@g.us", n)
}

func userJID(n int) string {
	return fmt.Sprintf("4915712%06d@s.whatsapp.net", n)
}

func doPostEvent(rng *rand.Rand) result {
	sender := userJID(rng.Intn(numUsers))
	body := map[string]interface{}{
		"pushName": fmt.Sprintf("Tester %d", rng.Intn(numUsers)),
		"type":     messageTypes[rng.Intn(len(messageTypes))],
	}
	// 60% group traffic, 40% direct chats
	if rng.Float64() < 0.6 {
		body["remoteJid"] = groupJID(rng.Intn(numGroups))
		body["participant"] = sender
	} else {
		body["remoteJid"] = sender
	}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/api/events", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /api/events", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /api/events", resp.StatusCode, lat, resp.StatusCode != 202}
}

func doGetGroups() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/api/groups")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /api/groups", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /api/groups", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetGroup(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/api/group?id=%s&limit=10", baseURL, groupJID(rng.Intn(numGroups)))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /api/group", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	// 404 is expected until the group has seen traffic
	bad := resp.StatusCode != 200 && resp.StatusCode != 404
	return result{"GET /api/group", resp.StatusCode, lat, bad}
}

func doGetUser(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/api/user?id=%s", baseURL, userJID(rng.Intn(numUsers)))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /api/user", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	bad := resp.StatusCode != 200 && resp.StatusCode != 404
	return result{"GET /api/user", resp.StatusCode, lat, bad}
}

func doGetOverview() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/api/overview")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /api/overview", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /api/overview", resp.StatusCode, lat, resp.StatusCode != 200}
}

func errorRate(errs, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(errs) / float64(total) * 100
}

func mean(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range latencies {
		sum += v
	}
	return sum / time.Duration(len(latencies))
}

// quantile expects latencies sorted ascending.
func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(q*float64(len(sorted)-1)+0.5)]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
