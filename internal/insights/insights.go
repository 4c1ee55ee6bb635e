// Package insights produces short natural-language summaries of survey
// results. It asks an OpenAI-style chat-completions endpoint when an API key
// is configured and falls back to a deterministic truncated summary when the
// call fails or no key is set.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"survey_pipeline/internal/analytics"
)

const systemPrompt = "You are an analyst summarizing survey results for a non-technical audience. " +
	"Write at most three sentences: participation, the strongest signal in the answers, and one caveat."

const cacheTTL = time.Hour

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	cache      sync.Map
}

type cachedInsight struct {
	text      string
	timestamp time.Time
}

func NewClient(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SurveyInsight returns a summary for one survey, cached for an hour per
// (survey, response count) so re-reads are cheap and new data invalidates.
func (c *Client) SurveyInsight(ctx context.Context, detail *analytics.SurveyDetail) string {
	key := fmt.Sprintf("%d|%d", detail.ID, detail.Responses)
	if cached, ok := c.cache.Load(key); ok {
		ci := cached.(cachedInsight)
		if time.Since(ci.timestamp) < cacheTTL {
			return ci.text
		}
	}

	text := c.generate(ctx, detail)
	c.cache.Store(key, cachedInsight{text: text, timestamp: time.Now()})
	return text
}

func (c *Client) generate(ctx context.Context, detail *analytics.SurveyDetail) string {
	if c.apiKey == "" {
		return fallbackSummary(detail)
	}

	text, err := c.chat(ctx, systemPrompt, buildPrompt(detail))
	if err != nil {
		log.Warn().Err(err).Uint("survey_id", detail.ID).Msg("Insight generation failed, using fallback summary")
		return fallbackSummary(detail)
	}
	return strings.TrimSpace(text)
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

// buildPrompt fills the analysis template with the survey's aggregates.
func buildPrompt(detail *analytics.SurveyDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Survey: %s (%s)\n", detail.Name, detail.Kind)
	fmt.Fprintf(&sb, "Responses: %d from %d respondents across %d questions (completion %.0f%%)\n",
		detail.Responses, detail.Respondents, len(detail.Questions), detail.CompletionRate*100)
	if detail.MaturityScore != nil {
		fmt.Fprintf(&sb, "Mean numeric score: %.2f\n", *detail.MaturityScore)
	}
	for _, q := range detail.Questions {
		fmt.Fprintf(&sb, "- %q (%s): %d answers", q.Text, q.ValueType, q.Answered)
		if q.Average != nil {
			fmt.Fprintf(&sb, ", average %.2f", *q.Average)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

const maxFallbackLen = 400

// fallbackSummary is the no-LLM path: a deterministic sentence built from
// the aggregates, truncated to a dashboard-friendly length.
func fallbackSummary(detail *analytics.SurveyDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s received %d responses from %d respondents.",
		detail.Name, detail.Responses, detail.Respondents)
	if detail.MaturityScore != nil {
		fmt.Fprintf(&sb, " Mean numeric score %.2f.", *detail.MaturityScore)
	}
	if detail.CompletionRate > 0 {
		fmt.Fprintf(&sb, " Completion rate %.0f%%.", detail.CompletionRate*100)
	}

	summary := sb.String()
	if len(summary) > maxFallbackLen {
		cut := maxFallbackLen - 3
		// Back up to a rune boundary so the cut never splits a character.
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}
	return summary
}
