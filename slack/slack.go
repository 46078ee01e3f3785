// Package slack posts plan summaries to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	mp "mealplanner"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// NotifyPlan posts the summary of a generated plan. A failed post is logged and otherwise ignored.
func NotifyPlan(ctx context.Context, client mp.SlackClient, channel string, res mp.Result) {
	if client == nil {
		return
	}
	if err := client.PostMessage(ctx, channel, FormatPlanSummary(res)); err != nil {
		slog.Warn("RESULT: Slack notification failed", "plan_id", res.PlanID, "error", err)
		return
	}
	slog.Info("RESULT: Slack notification sent", "plan_id", res.PlanID, "channel", channel)
}

// FormatPlanSummary renders a result as Slack mrkdwn: one line per day, then warnings.
func FormatPlanSummary(res mp.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Meal plan %s*: %d entries over %d days\n", res.PlanID, len(res.Entries), len(res.Days))
	if res.Target != nil {
		fmt.Fprintf(&b, "Daily target: %.0f kcal (P %.0fg / C %.0fg / F %.0fg)\n",
			res.Target.Calories, res.Target.Protein, res.Target.Carbs, res.Target.Fat)
	}

	servings := make(map[string]int)
	for _, e := range res.Entries {
		servings[e.Date.Format(mp.DateLayout)] += e.Servings
	}
	for _, d := range res.Days {
		date := d.Date.Format(mp.DateLayout)
		fmt.Fprintf(&b, "• %s: %.0f kcal, %d servings", date, d.Calories, servings[date])
		if d.TargetCalories != nil {
			fmt.Fprintf(&b, " (target %.0f)", *d.TargetCalories)
		}
		b.WriteString("\n")
	}

	if len(res.Warnings) > 0 {
		b.WriteString("*Warnings*\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "> %s\n", w)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
