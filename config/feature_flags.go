package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages the hub's feature toggles with gradual rollout.
// The hub is a bootcamp tool first: social features stay on, reward
// experiments roll out gradually, and notifications are tuned for
// motivation, not spam.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature

	// ownerID -> feature -> enabled, set from tests and debugging
	ownerOverrides map[string]map[string]bool
}

// Feature is a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent (0-100) buckets owners by a hash of their ID,
	// so an owner stays in or out of a rollout consistently.
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	OwnerID string // external auth identity of the player
	IsAdmin bool   // admin dashboard session, sees everything
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // Show rank changes (+2, -1)
	FeatureLeaderboardNeighbors  = "leaderboard.neighbors"   // Around-me window
	FeatureLeaderboardHubStats   = "leaderboard.hub_stats"   // Public hub totals

	// === Social Features (core to the bootcamp spirit) ===
	FeatureSocialFeeding  = "social.feeding"  // Feed other creatures
	FeatureSocialGifts    = "social.gifts"    // Token gifting
	FeatureSocialMessages = "social.messages" // Creature-to-creature messages
	FeatureSocialVisits   = "social.visits"   // Visit other creatures

	// === Notification Features ===
	FeatureNotifyEvolution = "notify.evolution" // "Your creature evolved!"
	FeatureNotifyDeath     = "notify.death"     // Death and revival prompts
	FeatureNotifyLowStats  = "notify.low_stats" // Hunger/energy warnings
	FeatureNotifyRankUp    = "notify.rank_up"   // "You moved up!"
	FeatureNotifySocial    = "notify.social"    // Feeds, gifts, messages, visits

	// === Training Features ===
	FeatureTrainingCompanionChat = "training.companion_chat" // Free-form chat with the creature
	FeatureTrainingFallbackScore = "training.fallback_score" // Award a flat score when the evaluator is down

	// === Experimental Features ===
	FeatureExperimentalWebhooks  = "experimental.webhooks"  // Push notifications to owner apps
	FeatureExperimentalAnalytics = "experimental.analytics" // Advanced admin analytics
)

// defaultFeatures is the shipped flag state. Experimental features are
// off until someone flips them per environment.
var defaultFeatures = []Feature{
	{FeatureLeaderboardRankChange, "Show rank changes in leaderboard", true, 100},
	{FeatureLeaderboardNeighbors, "Show the ranks around a creature", true, 100},
	{FeatureLeaderboardHubStats, "Expose hub-wide totals", true, 100},

	{FeatureSocialFeeding, "Feed other creatures", true, 100},
	{FeatureSocialGifts, "Gift tokens between creatures", true, 100},
	{FeatureSocialMessages, "Creature-to-creature messages", true, 100},
	{FeatureSocialVisits, "Visit other creatures", true, 100},

	{FeatureNotifyEvolution, "Notify on stage evolution", true, 100},
	{FeatureNotifyDeath, "Notify on death with revival prompt", true, 100},
	{FeatureNotifyLowStats, "Warn when hunger or energy runs low", true, 100},
	{FeatureNotifyRankUp, "Notify when rank improves", true, 100},
	{FeatureNotifySocial, "Notify on feeds, gifts, messages and visits", true, 100},

	{FeatureTrainingCompanionChat, "Free-form chat with the creature", true, 100},
	{FeatureTrainingFallbackScore, "Flat score when the evaluator is unavailable", true, 100},

	{FeatureExperimentalWebhooks, "Push notifications to owner apps", false, 0},
	{FeatureExperimentalAnalytics, "Advanced admin analytics", false, 0},
}

// LoadFeatureFlags builds the default flag set, then applies
// environment overrides of the form FEATURE_<NAME>=true|false|<percent>.
// Example: FEATURE_SOCIAL_GIFTS=false, FEATURE_NOTIFY_RANK_UP=50.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:       make(map[string]*Feature, len(defaultFeatures)),
		ownerOverrides: make(map[string]map[string]bool),
	}

	for _, f := range defaultFeatures {
		feature := f
		ff.features[f.Name] = &feature
	}
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts "social.gifts" to "FEATURE_SOCIAL_GIFTS".
func featureNameToEnvKey(name string) string {
	return "FEATURE_" + strings.ReplaceAll(strings.ToUpper(name), ".", "_")
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.OwnerID != "" {
		if enabled, ok := ff.ownerOverrides[ctx.OwnerID][featureName]; ok {
			return enabled
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}
	if ctx != nil && ctx.IsAdmin {
		return true
	}
	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.OwnerID != "" {
		return inRollout(ctx.OwnerID, featureName, feature.RolloutPercent)
	}
	return feature.RolloutPercent > 0
}

// IsEnabledForOwner evaluates a flag for a plain owner identity. The
// notification producer uses this; it has no admin context.
func (ff *FeatureFlags) IsEnabledForOwner(featureName, ownerID string) bool {
	return ff.IsEnabled(featureName, &FeatureContext{OwnerID: ownerID})
}

// inRollout buckets an owner+feature pair into 0-99 by consistent
// hashing, so owners keep their bucket across evaluations.
func inRollout(ownerID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(ownerID))
	return int(h.Sum32()%100) < percent
}

// SetOwnerOverride forces a feature on or off for one owner.
func (ff *FeatureFlags) SetOwnerOverride(ownerID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.ownerOverrides[ownerID]; !ok {
		ff.ownerOverrides[ownerID] = make(map[string]bool)
	}
	ff.ownerOverrides[ownerID][featureName] = enabled
}

// ClearOwnerOverrides removes all overrides for an owner.
func (ff *FeatureFlags) ClearOwnerOverrides(ownerID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.ownerOverrides, ownerID)
}

// SetRolloutPercent updates a feature's rollout live.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
