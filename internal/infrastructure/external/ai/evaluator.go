package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/regen-hub/regenmon-hub/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRAINING EVALUATOR
// Scores a training submission 0-100. The model is instructed to answer in
// the exact "Score: X/100. feedback" shape; parsing degrades gracefully to
// the first plausible number, and a reply with no number at all is an error
// so the command layer can apply its fallback score.
// ══════════════════════════════════════════════════════════════════════════════

// scorePattern matches the instructed "Score: X/100" reply shape.
var scorePattern = regexp.MustCompile(`(?i)score:\s*(\d{1,3})\s*/\s*100`)

// loosePattern matches any standalone 1-3 digit number.
var loosePattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// Evaluator implements command.Evaluator over the model gateway.
type Evaluator struct {
	client *Client
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(client *Client) *Evaluator {
	return &Evaluator{client: client}
}

// Evaluate scores a training prompt.
func (e *Evaluator) Evaluate(ctx context.Context, creatureName, prompt string) (*command.Evaluation, error) {
	messages := []MessageDTO{
		{Role: "system", Content: evaluationInstruction(creatureName)},
		{Role: "user", Content: prompt},
	}

	reply, err := e.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	score, ok := extractScore(reply)
	if !ok {
		return nil, fmt.Errorf("evaluate: no score in reply %q", truncate(reply, 80))
	}

	return &command.Evaluation{
		Score:    score,
		Feedback: extractFeedback(reply),
	}, nil
}

// evaluationInstruction is the grading system prompt.
func evaluationInstruction(creatureName string) string {
	return fmt.Sprintf(`You grade bootcamp training submissions that players show to their virtual pet %s.
Evaluate the submission on a 0-100 scale considering:
- Demonstrated effort
- Understanding of the topic
- Practical application
- Visible progress

Answer ONLY with the number on the first line, followed by 1-2 sentences of constructive feedback.
EXACT format: "Score: X/100. [brief feedback]"`, creatureName)
}

// extractScore parses the score out of a model reply.
func extractScore(reply string) (int, bool) {
	if m := scorePattern.FindStringSubmatch(reply); m != nil {
		score, err := strconv.Atoi(m[1])
		if err == nil && score >= 0 && score <= 100 {
			return score, true
		}
	}

	// Fall back to the first in-range number anywhere in the reply.
	if m := loosePattern.FindStringSubmatch(reply); m != nil {
		score, err := strconv.Atoi(m[1])
		if err == nil && score >= 0 && score <= 100 {
			return score, true
		}
	}

	return 0, false
}

// extractFeedback strips the score prefix and returns the remaining text.
func extractFeedback(reply string) string {
	loc := scorePattern.FindStringIndex(reply)
	if loc == nil {
		return strings.TrimSpace(reply)
	}

	feedback := strings.TrimSpace(reply[loc[1]:])
	feedback = strings.TrimLeft(feedback, ".,:;- ")
	return strings.TrimSpace(feedback)
}

// truncate shortens s for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
