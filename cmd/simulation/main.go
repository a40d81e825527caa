package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minTrades     = 10
	maxTrades     = 60
	numWorkers    = 4
	serverAddress = "http://localhost:8080"
)

var (
	symbols    = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}
	directions = []string{"long", "short"}
	strategies = []string{"breakout", "pullback", "earnings", "trend"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the journal API
type simulationClient struct {
	httpClient *http.Client
	token      string
	accountID  string

	statsMu sync.Mutex
	stats   map[string]*routeStats
}

func newSimulationClient() *simulationClient {
	return &simulationClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		stats:      make(map[string]*routeStats),
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call issues a JSON request, records latency stats, and decodes the
// response envelope into out
func (c *simulationClient) call(route, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, serverAddress+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	c.statsMu.Lock()
	rs, ok := c.stats[route]
	if !ok {
		rs = &routeStats{name: route}
		c.stats[route] = rs
	}
	rs.addDuration(elapsed)
	if err != nil || resp.StatusCode >= 400 {
		rs.failures++
	}
	c.statsMu.Unlock()

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("%s %s: %s", method, path, envelope.Error.Message)
		}
		return fmt.Errorf("%s %s: request failed", method, path)
	}

	if out != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

type tokenData struct {
	Token string `json:"access_token"`
}

type accountData struct {
	AccountID string `json:"account_id"`
}

type tradeData struct {
	Trade struct {
		TradeID    string  `json:"trade_id"`
		EntryPrice float64 `json:"entry_price"`
		Quantity   float64 `json:"quantity"`
		Status     string  `json:"status"`
		ProfitLoss float64 `json:"profit_loss"`
	} `json:"trade"`
	Warnings []string `json:"warnings"`
}

func (c *simulationClient) signUp() error {
	var token tokenData
	err := c.call("auth_signup", http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email":     fmt.Sprintf("sim-%d@example.com", rand.Int63()),
		"password":  "simulation-pass",
		"full_name": "Simulation User",
	}, &token)
	if err != nil {
		return err
	}
	c.token = token.Token
	return nil
}

func (c *simulationClient) createAccount() error {
	var account accountData
	err := c.call("accounts_create", http.MethodPost, "/api/v1/accounts", map[string]interface{}{
		"name":                    fmt.Sprintf("Sim Account %d", rand.Int31()),
		"currency":                "USD",
		"account_size":            100000,
		"default_risk_percentage": 2,
	}, &account)
	if err != nil {
		return err
	}
	c.accountID = account.AccountID
	return nil
}

// runTradeLifecycle creates a trade, scales in, partially or fully closes
// it, and checks the derived fields the server reports along the way
func (c *simulationClient) runTradeLifecycle() error {
	entryPrice := 50 + rand.Float64()*200
	quantity := float64(rand.Intn(90) + 10)

	var created tradeData
	err := c.call("trades_create", http.MethodPost, "/api/v1/trades", map[string]interface{}{
		"account_id":  c.accountID,
		"symbol":      symbols[rand.Intn(len(symbols))],
		"direction":   directions[rand.Intn(len(directions))],
		"strategy":    strategies[rand.Intn(len(strategies))],
		"quantity":    quantity,
		"entry_price": entryPrice,
		"stop_price":  entryPrice * 0.95,
		"commission":  1.5,
	}, &created)
	if err != nil {
		return err
	}
	tradeID := created.Trade.TradeID

	if created.Trade.Quantity != quantity {
		return fmt.Errorf("trade %s: expected quantity %.2f, got %.2f", tradeID, quantity, created.Trade.Quantity)
	}

	// Scale in half the time
	if rand.Intn(2) == 0 {
		var updated tradeData
		err = c.call("events_add", http.MethodPost, "/api/v1/trades/"+tradeID+"/events", map[string]interface{}{
			"type":     "add",
			"quantity": quantity,
			"price":    entryPrice * 1.02,
		}, &updated)
		if err != nil {
			return err
		}

		wantAvg := (entryPrice + entryPrice*1.02) / 2
		if math.Abs(updated.Trade.EntryPrice-wantAvg) > 1e-6 {
			return fmt.Errorf("trade %s: expected avg %.4f, got %.4f", tradeID, wantAvg, updated.Trade.EntryPrice)
		}
		quantity = updated.Trade.Quantity
	}

	// Sell some or all of the position
	sellQty := quantity
	if rand.Intn(2) == 0 {
		sellQty = math.Floor(quantity / 2)
	}
	var closed tradeData
	err = c.call("events_add", http.MethodPost, "/api/v1/trades/"+tradeID+"/events", map[string]interface{}{
		"type":     "sell",
		"quantity": sellQty,
		"price":    entryPrice * 1.05,
	}, &closed)
	if err != nil {
		return err
	}

	if sellQty == quantity && closed.Trade.Status != "closed" {
		return fmt.Errorf("trade %s: expected closed after full sell, got %s", tradeID, closed.Trade.Status)
	}

	// Re-read and confirm the reconciled state is stable
	var reread tradeData
	if err := c.call("trades_get", http.MethodGet, "/api/v1/trades/"+tradeID, nil, &reread); err != nil {
		return err
	}
	if reread.Trade.ProfitLoss != closed.Trade.ProfitLoss {
		return fmt.Errorf("trade %s: profit/loss changed on re-read: %.4f vs %.4f",
			tradeID, closed.Trade.ProfitLoss, reread.Trade.ProfitLoss)
	}

	return nil
}

func (c *simulationClient) printStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	names := make([]string, 0, len(c.stats))
	for name := range c.stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rs := c.stats[name]
		min, max, mean, median, p95, p99 := rs.calculate()
		log.Info().
			Str("route", name).
			Int("calls", rs.totalCalls).
			Int("failures", rs.failures).
			Dur("min", min).
			Dur("max", max).
			Dur("mean", mean).
			Dur("median", median).
			Dur("p95", p95).
			Dur("p99", p99).
			Msg("route statistics")
	}
}

func main() {
	client := newSimulationClient()

	if err := client.signUp(); err != nil {
		log.Fatal().Err(err).Msg("sign-up failed, is the server running?")
	}
	if err := client.createAccount(); err != nil {
		log.Fatal().Err(err).Msg("account creation failed")
	}

	numTrades := rand.Intn(maxTrades-minTrades+1) + minTrades
	log.Info().Int("trades", numTrades).Int("workers", numWorkers).Msg("starting simulation")

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if err := client.runTradeLifecycle(); err != nil {
					log.Error().Err(err).Msg("trade lifecycle failed")
				}
			}
		}()
	}

	for i := 0; i < numTrades; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log.Info().Msg("simulation complete")
	client.printStats()
}
