package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT COMPANION
// Voices the creature. The personality prompt is rebuilt from the current
// stats on every exchange so a hungry, tired creature answers like one.
// ══════════════════════════════════════════════════════════════════════════════

// Companion implements command.Companion over the model gateway.
type Companion struct {
	client *Client
}

// NewCompanion creates a new Companion.
func NewCompanion(client *Client) *Companion {
	return &Companion{client: client}
}

// Reply answers a prompt in the creature's voice.
func (c *Companion) Reply(ctx context.Context, creatureName string, stats creature.Stats, prompt string) (string, error) {
	messages := []MessageDTO{
		{Role: "system", Content: personalityPrompt(creatureName, stats)},
		{Role: "user", Content: prompt},
	}

	reply, err := c.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("reply: %w", err)
	}

	return strings.TrimSpace(reply), nil
}

// personalityPrompt derives the creature's mood from its stats.
func personalityPrompt(creatureName string, stats creature.Stats) string {
	var mood strings.Builder

	switch {
	case stats.Happiness > 70:
		mood.WriteString("You are very happy and playful. ")
	case stats.Happiness > 40:
		mood.WriteString("You are in a good but calm mood. ")
	default:
		mood.WriteString("You are a bit sad and need cheering up. ")
	}

	switch {
	case stats.Energy > 70:
		mood.WriteString("You are full of energy and want to play. ")
	case stats.Energy > 40:
		mood.WriteString("You have moderate energy. ")
	default:
		mood.WriteString("You are tired and need to rest. ")
	}

	// Hunger is satiety: high means well fed.
	switch {
	case stats.Hunger > 70:
		mood.WriteString("You are well fed and satisfied. ")
	case stats.Hunger > 40:
		mood.WriteString("You are a little peckish. ")
	default:
		mood.WriteString("You are very hungry and keep thinking about food. ")
	}

	return fmt.Sprintf(`You are %s, a small virtual creature raised by a bootcamp student. Your current mood: %s

Answer in first person as %s. Be brief (1-2 sentences maximum). Reflect your mood in the answer.`,
		creatureName, mood.String(), creatureName)
}
