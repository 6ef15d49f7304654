// Package copilot turns profile and weather context into advisory insights
// and chat replies via a chat-completion provider.
package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/llm"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

const systemPrompt = "You are a practical farming assistant. Ground every answer in the farm context you are given. Prefer short, actionable advice."

// FallbackInsights is returned verbatim whenever the provider fails or its
// reply cannot be parsed. Downstream task synthesis depends on this exact
// content, so treat it as frozen.
var FallbackInsights = []string{
	"Monitor soil moisture levels and adjust irrigation as needed.",
	"Scout fields regularly for early signs of pests and disease.",
	"Review your crop plan against this week's weather forecast.",
}

// FallbackChatReply is the canned reply when the provider is unreachable.
const FallbackChatReply = "I can't reach the advisory service right now. Please try again in a few minutes."

// Service produces insights and chat replies. The degraded flag reports
// that the fallback content was used instead of a live completion.
type Service interface {
	Insights(ctx context.Context, p *profile.FarmProfile, snap weather.Snapshot) (insights []string, degraded bool)
	Chat(ctx context.Context, p *profile.FarmProfile, history []llm.Message, message string) (reply string, degraded bool)
}

type service struct {
	client llm.Client
	logg   *logger.Logger
}

func NewService(client llm.Client, logg *logger.Logger) Service {
	return &service{client: client, logg: logg}
}

func (s *service) Insights(ctx context.Context, p *profile.FarmProfile, snap weather.Snapshot) ([]string, bool) {
	if s.client == nil {
		return FallbackInsights, true
	}

	prompt := renderInsightPrompt(p, snap)
	reply, err := s.client.Complete(ctx, systemPrompt, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "insight completion failed", err)
		}
		return FallbackInsights, true
	}

	insights := parseInsights(reply)
	if len(insights) == 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, "insight reply unparseable, using fallback")
		}
		return FallbackInsights, true
	}
	return insights, false
}

func (s *service) Chat(ctx context.Context, p *profile.FarmProfile, history []llm.Message, message string) (string, bool) {
	if s.client == nil {
		return FallbackChatReply, true
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "user", Content: renderProfileContext(p)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: message})

	reply, err := s.client.Complete(ctx, systemPrompt, messages)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "chat completion failed", err)
		}
		return FallbackChatReply, true
	}
	return reply, false
}

func renderInsightPrompt(p *profile.FarmProfile, snap weather.Snapshot) string {
	var b strings.Builder
	b.WriteString("Produce 3 to 5 short farming insights for the next few days.\n")
	b.WriteString("Reply as a plain bullet list, one insight per line, no preamble.\n\n")
	b.WriteString(renderProfileContext(p))

	if snap.Current != nil {
		fmt.Fprintf(&b, "\nCurrent weather: %.1fC, %s, humidity %d%%, wind %.0f kph\n",
			snap.Current.TempC, snap.Current.Condition, snap.Current.HumidityPct, snap.Current.WindKph)
	}
	for _, day := range snap.Days {
		fmt.Fprintf(&b, "Forecast %s: high %.1fC, low %.1fC, %s, rain chance %d%%\n",
			day.Date, day.HighC, day.LowC, day.Condition, day.ChanceOfRain)
	}
	return b.String()
}

func renderProfileContext(p *profile.FarmProfile) string {
	var b strings.Builder
	b.WriteString("FARM CONTEXT\n")
	if p == nil {
		return b.String()
	}
	if p.FarmName != "" {
		fmt.Fprintf(&b, "Farm: %s\n", p.FarmName)
	}
	if p.SoilTexture != "" {
		fmt.Fprintf(&b, "Soil: %s\n", p.SoilTexture)
	}
	if p.Area != nil {
		fmt.Fprintf(&b, "Area: %g %s\n", p.Area.Value, p.Area.Unit)
	}
	if crops := p.Collections[enums.CollectionCurrentCrops]; len(crops) > 0 {
		fmt.Fprintf(&b, "Current crops: %s\n", strings.Join(crops, ", "))
	}
	if goals := p.Collections[enums.CollectionGoals]; len(goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(goals, ", "))
	}
	if coords := p.Location.Authoritative(); coords != nil {
		fmt.Fprintf(&b, "Location: %.4f, %.4f\n", coords.Lat, coords.Lon)
	} else if p.Location.Text != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location.Text)
	}
	return b.String()
}

// parseInsights accepts either a bullet list or a JSON-shaped reply. Anything
// else yields nothing and the caller falls back.
func parseInsights(reply string) []string {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil
	}

	if insights := parseJSONInsights(trimmed); len(insights) > 0 {
		return insights
	}

	var insights []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		stripped := stripBullet(line)
		if stripped == "" {
			continue
		}
		insights = append(insights, stripped)
	}
	return insights
}

func parseJSONInsights(trimmed string) []string {
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		return cleanInsights(arr)
	}

	var wrapped struct {
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil {
		return cleanInsights(wrapped.Insights)
	}
	return nil
}

func cleanInsights(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripBullet(line string) string {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	// Numbered lists: "1. ..." through "99. ...".
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' && i > 0 && i <= 2 {
			return strings.TrimSpace(line[i+1:])
		}
		break
	}
	return ""
}
