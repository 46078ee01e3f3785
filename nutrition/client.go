// Package nutrition talks to the external macro target calculator.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mp "mealplanner"

	"github.com/go-resty/resty/v2"
)

const (
	dailyTargetPath = "/v1/targets/daily"
	slotTargetsPath = "/v1/targets/slots"
)

// Client is an HTTP client for the macro target calculator service.
type Client struct {
	http *resty.Client
}

// NewClient creates a calculator client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: client}
}

type slotTargetsRequest struct {
	Daily mp.MacroTarget `json:"daily"`
	Slots []mp.Slot      `json:"slots"`
}

type slotTargetsResponse struct {
	Slots []mp.SlotTarget `json:"slots"`
}

// DailyTarget asks the service for the daily macro target of a complete profile.
func (c *Client) DailyTarget(ctx context.Context, profile mp.Profile) (mp.MacroTarget, error) {
	if !profile.Complete() {
		return mp.MacroTarget{}, fmt.Errorf("profile is incomplete")
	}

	var target mp.MacroTarget
	if err := c.post(ctx, dailyTargetPath, profile, &target); err != nil {
		return mp.MacroTarget{}, err
	}
	return target, nil
}

// SlotTargets asks the service to split daily across slots. Every requested slot must come back.
func (c *Client) SlotTargets(ctx context.Context, daily mp.MacroTarget, slots []mp.Slot) ([]mp.SlotTarget, error) {
	var out slotTargetsResponse
	if err := c.post(ctx, slotTargetsPath, slotTargetsRequest{Daily: daily, Slots: slots}, &out); err != nil {
		return nil, err
	}

	bySlot := make(map[mp.Slot]mp.SlotTarget, len(out.Slots))
	for _, st := range out.Slots {
		bySlot[st.Slot] = st
	}
	targets := make([]mp.SlotTarget, 0, len(slots))
	for _, s := range slots {
		st, ok := bySlot[s]
		if !ok {
			return nil, fmt.Errorf("calculator returned no target for slot %q", s)
		}
		targets = append(targets, st)
	}
	return targets, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("failed to send request to calculator: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("calculator returned %s: %s", resp.Status(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse calculator response: %w", err)
	}
	return nil
}
