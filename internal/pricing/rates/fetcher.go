package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"ticketstore/internal/logger"
)

// Fetcher pulls the USD to TL rate from an external feed and persists it.
// It is optional: deployments that refresh rates through an external
// scheduled task simply leave it disabled.
type Fetcher struct {
	store   Store
	client  *http.Client
	logger  *logger.Logger
	feedURL string
}

type feedResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func NewFetcher(store Store, client *http.Client, log *logger.Logger, feedURL string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{store: store, client: client, logger: log, feedURL: feedURL}
}

// FetchOnce reads the feed and inserts a new rate row.
func (f *Fetcher) FetchOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build rate feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return fmt.Errorf("failed to decode rate feed: %w", err)
	}

	rate, ok := feed.Rates["TRY"]
	if !ok || rate <= 0 {
		return fmt.Errorf("rate feed has no usable TRY rate")
	}

	if err := f.store.InsertRate(ctx, rate, time.Now()); err != nil {
		return fmt.Errorf("failed to persist fetched rate: %w", err)
	}

	f.logger.LogRates("Fetched USD/TRY rate " + formatRate(rate))
	return nil
}

// Schedule registers the periodic refresh job on the given scheduler.
// Failures are logged and the job keeps running.
func (f *Fetcher) Schedule(scheduler gocron.Scheduler, interval time.Duration) error {
	_, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := f.FetchOnce(ctx); err != nil {
				f.logger.Error("RATES", "Scheduled rate refresh failed: "+err.Error())
			}
		}),
	)
	return err
}
