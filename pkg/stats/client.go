// Package stats is an HTTP client for the hit counter service.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const TimeLayout = "2006-01-02 15:04:05"

// Time marshals in the hit counter's "2006-01-02 15:04:05" format.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimeLayout))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

type Hit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp Time   `json:"timestamp"`
}

type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// StatsQuery leaves the time bounds open when Start or End is zero.
type StatsQuery struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Hit(ctx context.Context, hit Hit) error {
	body, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("marshal hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post hit: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("post hit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Stats(ctx context.Context, q StatsQuery) ([]ViewStats, error) {
	params := url.Values{}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.Format(TimeLayout))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.Format(TimeLayout))
	}
	for _, uri := range q.URIs {
		params.Add("uris", uri)
	}
	params.Set("unique", strconv.FormatBool(q.Unique))
	if len(q.URIs) > 0 {
		params.Set("size", strconv.Itoa(len(q.URIs)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("get stats: unexpected status %d", resp.StatusCode)
	}

	var out []ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}
