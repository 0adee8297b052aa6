// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Creature lifecycle events
	EventCreatureRegistered EventType = "creature.registered"
	EventCreatureFed        EventType = "creature.fed"
	EventCreatureTrained    EventType = "creature.trained"
	EventCreatureEvolved    EventType = "creature.evolved"
	EventCreatureDied       EventType = "creature.died"
	EventCreatureRevived    EventType = "creature.revived"
	EventCreatureInactive   EventType = "creature.inactive"

	// Token events
	EventTokensAwarded  EventType = "tokens.awarded"
	EventTokensSpent    EventType = "tokens.spent"
	EventTokensGifted   EventType = "tokens.gifted"
	EventTokensAdjusted EventType = "tokens.adjusted"

	// Social events
	EventMessageSent     EventType = "social.message_sent"
	EventCreatureVisited EventType = "social.creature_visited"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// System events
	EventSyncCompleted EventType = "system.sync_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Creature Events
// ═══════════════════════════════════════════════════════════════════════════

// CreatureRegisteredEvent is emitted when a new creature registers.
type CreatureRegisteredEvent struct {
	BaseEvent
	Name    string `json:"name"`
	AppURL  string `json:"app_url"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Payload implements Event interface.
func (e CreatureRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":     e.Name,
		"app_url":  e.AppURL,
		"owner_id": e.OwnerID,
	}
}

// NewCreatureRegisteredEvent creates a new CreatureRegisteredEvent.
func NewCreatureRegisteredEvent(creatureID, name, appURL, ownerID string) CreatureRegisteredEvent {
	return CreatureRegisteredEvent{
		BaseEvent: NewBaseEvent(EventCreatureRegistered, creatureID),
		Name:      name,
		AppURL:    appURL,
		OwnerID:   ownerID,
	}
}

// CreatureFedEvent is emitted when a creature gets fed.
type CreatureFedEvent struct {
	BaseEvent
	CreatureID string `json:"creature_id"`
	FeederID   string `json:"feeder_id"` // same as CreatureID for self-feed
	Cost       int64  `json:"cost"`
}

// Payload implements Event interface.
func (e CreatureFedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"feeder_id":   e.FeederID,
		"cost":        e.Cost,
	}
}

// NewCreatureFedEvent creates a new CreatureFedEvent.
func NewCreatureFedEvent(creatureID, feederID string, cost int64) CreatureFedEvent {
	return CreatureFedEvent{
		BaseEvent:  NewBaseEvent(EventCreatureFed, creatureID),
		CreatureID: creatureID,
		FeederID:   feederID,
		Cost:       cost,
	}
}

// CreatureTrainedEvent is emitted when a training submission is scored.
type CreatureTrainedEvent struct {
	BaseEvent
	CreatureID   string `json:"creature_id"`
	Score        int    `json:"score"`
	PointsEarned int    `json:"points_earned"`
	TokensEarned int64  `json:"tokens_earned"`
	Fallback     bool   `json:"fallback"` // true when the evaluator was unavailable
}

// Payload implements Event interface.
func (e CreatureTrainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id":   e.CreatureID,
		"score":         e.Score,
		"points_earned": e.PointsEarned,
		"tokens_earned": e.TokensEarned,
		"fallback":      e.Fallback,
	}
}

// NewCreatureTrainedEvent creates a new CreatureTrainedEvent.
func NewCreatureTrainedEvent(creatureID string, score, points int, tokens int64, fallback bool) CreatureTrainedEvent {
	return CreatureTrainedEvent{
		BaseEvent:    NewBaseEvent(EventCreatureTrained, creatureID),
		CreatureID:   creatureID,
		Score:        score,
		PointsEarned: points,
		TokensEarned: tokens,
		Fallback:     fallback,
	}
}

// CreatureEvolvedEvent is emitted when a creature advances an evolution stage.
type CreatureEvolvedEvent struct {
	BaseEvent
	CreatureID  string `json:"creature_id"`
	OldStage    int    `json:"old_stage"`
	NewStage    int    `json:"new_stage"`
	TotalPoints int    `json:"total_points"`
	Bonus       int64  `json:"bonus"`
}

// Payload implements Event interface.
func (e CreatureEvolvedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id":  e.CreatureID,
		"old_stage":    e.OldStage,
		"new_stage":    e.NewStage,
		"total_points": e.TotalPoints,
		"bonus":        e.Bonus,
	}
}

// NewCreatureEvolvedEvent creates a new CreatureEvolvedEvent.
func NewCreatureEvolvedEvent(creatureID string, oldStage, newStage, totalPoints int, bonus int64) CreatureEvolvedEvent {
	return CreatureEvolvedEvent{
		BaseEvent:   NewBaseEvent(EventCreatureEvolved, creatureID),
		CreatureID:  creatureID,
		OldStage:    oldStage,
		NewStage:    newStage,
		TotalPoints: totalPoints,
		Bonus:       bonus,
	}
}

// CreatureDiedEvent is emitted when all stats reach zero.
type CreatureDiedEvent struct {
	BaseEvent
	CreatureID string    `json:"creature_id"`
	DiedAt     time.Time `json:"died_at"`
}

// Payload implements Event interface.
func (e CreatureDiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"died_at":     e.DiedAt.Format(time.RFC3339),
	}
}

// NewCreatureDiedEvent creates a new CreatureDiedEvent.
func NewCreatureDiedEvent(creatureID string, diedAt time.Time) CreatureDiedEvent {
	return CreatureDiedEvent{
		BaseEvent:  NewBaseEvent(EventCreatureDied, creatureID),
		CreatureID: creatureID,
		DiedAt:     diedAt,
	}
}

// CreatureRevivedEvent is emitted when a dead creature is brought back.
type CreatureRevivedEvent struct {
	BaseEvent
	CreatureID string `json:"creature_id"`
	Cost       int64  `json:"cost"`
}

// Payload implements Event interface.
func (e CreatureRevivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"cost":        e.Cost,
	}
}

// NewCreatureRevivedEvent creates a new CreatureRevivedEvent.
func NewCreatureRevivedEvent(creatureID string, cost int64) CreatureRevivedEvent {
	return CreatureRevivedEvent{
		BaseEvent:  NewBaseEvent(EventCreatureRevived, creatureID),
		CreatureID: creatureID,
		Cost:       cost,
	}
}

// CreatureInactiveEvent is emitted when a creature has not synced for too long.
type CreatureInactiveEvent struct {
	BaseEvent
	CreatureID   string    `json:"creature_id"`
	DaysInactive int       `json:"days_inactive"`
	LastSyncAt   time.Time `json:"last_sync_at"`
}

// Payload implements Event interface.
func (e CreatureInactiveEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id":   e.CreatureID,
		"days_inactive": e.DaysInactive,
		"last_sync_at":  e.LastSyncAt.Format(time.RFC3339),
	}
}

// NewCreatureInactiveEvent creates a new CreatureInactiveEvent.
func NewCreatureInactiveEvent(creatureID string, daysInactive int, lastSyncAt time.Time) CreatureInactiveEvent {
	return CreatureInactiveEvent{
		BaseEvent:    NewBaseEvent(EventCreatureInactive, creatureID),
		CreatureID:   creatureID,
		DaysInactive: daysInactive,
		LastSyncAt:   lastSyncAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Token Events
// ═══════════════════════════════════════════════════════════════════════════

// TokensAwardedEvent is emitted when tokens are credited to a creature.
type TokensAwardedEvent struct {
	BaseEvent
	CreatureID string `json:"creature_id"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
	Source     string `json:"source"` // e.g., "sync", "training", "evolution_bonus"
}

// Payload implements Event interface.
func (e TokensAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"amount":      e.Amount,
		"new_balance": e.NewBalance,
		"source":      e.Source,
	}
}

// NewTokensAwardedEvent creates a new TokensAwardedEvent.
func NewTokensAwardedEvent(creatureID string, amount, newBalance int64, source string) TokensAwardedEvent {
	return TokensAwardedEvent{
		BaseEvent:  NewBaseEvent(EventTokensAwarded, creatureID),
		CreatureID: creatureID,
		Amount:     amount,
		NewBalance: newBalance,
		Source:     source,
	}
}

// TokensSpentEvent is emitted when tokens are debited from a creature.
type TokensSpentEvent struct {
	BaseEvent
	CreatureID string `json:"creature_id"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
	Purpose    string `json:"purpose"` // e.g., "feed", "revive"
}

// Payload implements Event interface.
func (e TokensSpentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"amount":      e.Amount,
		"new_balance": e.NewBalance,
		"purpose":     e.Purpose,
	}
}

// NewTokensSpentEvent creates a new TokensSpentEvent.
func NewTokensSpentEvent(creatureID string, amount, newBalance int64, purpose string) TokensSpentEvent {
	return TokensSpentEvent{
		BaseEvent:  NewBaseEvent(EventTokensSpent, creatureID),
		CreatureID: creatureID,
		Amount:     amount,
		NewBalance: newBalance,
		Purpose:    purpose,
	}
}

// TokensGiftedEvent is emitted when tokens move between two creatures.
type TokensGiftedEvent struct {
	BaseEvent
	FromCreatureID string `json:"from_creature_id"`
	ToCreatureID   string `json:"to_creature_id"`
	Amount         int64  `json:"amount"`
}

// Payload implements Event interface.
func (e TokensGiftedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from_creature_id": e.FromCreatureID,
		"to_creature_id":   e.ToCreatureID,
		"amount":           e.Amount,
	}
}

// NewTokensGiftedEvent creates a new TokensGiftedEvent.
func NewTokensGiftedEvent(fromID, toID string, amount int64) TokensGiftedEvent {
	return TokensGiftedEvent{
		BaseEvent:      NewBaseEvent(EventTokensGifted, fromID),
		FromCreatureID: fromID,
		ToCreatureID:   toID,
		Amount:         amount,
	}
}

// TokensAdjustedEvent is emitted when an operator corrects a balance.
type TokensAdjustedEvent struct {
	BaseEvent
	CreatureID string `json:"creature_id"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
	Reason     string `json:"reason"`
	ActorID    string `json:"actor_id"`
}

// Payload implements Event interface.
func (e TokensAdjustedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id": e.CreatureID,
		"amount":      e.Amount,
		"new_balance": e.NewBalance,
		"reason":      e.Reason,
		"actor_id":    e.ActorID,
	}
}

// NewTokensAdjustedEvent creates a new TokensAdjustedEvent.
func NewTokensAdjustedEvent(creatureID string, amount, newBalance int64, reason, actorID string) TokensAdjustedEvent {
	return TokensAdjustedEvent{
		BaseEvent:  NewBaseEvent(EventTokensAdjusted, creatureID),
		CreatureID: creatureID,
		Amount:     amount,
		NewBalance: newBalance,
		Reason:     reason,
		ActorID:    actorID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Social Events
// ═══════════════════════════════════════════════════════════════════════════

// MessageSentEvent is emitted when a message lands in a creature's inbox.
type MessageSentEvent struct {
	BaseEvent
	FromCreatureID string `json:"from_creature_id"`
	ToCreatureID   string `json:"to_creature_id"`
	MessageID      string `json:"message_id"`
}

// Payload implements Event interface.
func (e MessageSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from_creature_id": e.FromCreatureID,
		"to_creature_id":   e.ToCreatureID,
		"message_id":       e.MessageID,
	}
}

// NewMessageSentEvent creates a new MessageSentEvent.
func NewMessageSentEvent(fromID, toID, messageID string) MessageSentEvent {
	return MessageSentEvent{
		BaseEvent:      NewBaseEvent(EventMessageSent, fromID),
		FromCreatureID: fromID,
		ToCreatureID:   toID,
		MessageID:      messageID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted after a ranking rebuild.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	EntryCount int `json:"entry_count"`
}

// Payload implements Event interface.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entry_count": e.EntryCount,
	}
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent. The
// aggregate is the whole board, so the ID is a fixed marker.
func NewLeaderboardUpdatedEvent(entryCount int) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventLeaderboardUpdated, "leaderboard"),
		EntryCount: entryCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// SyncCompletedEvent is emitted after a client sync finishes.
type SyncCompletedEvent struct {
	BaseEvent
	CreatureID   string `json:"creature_id"`
	PointsGained int    `json:"points_gained"`
	TokensEarned int64  `json:"tokens_earned"`
	Evolved      bool   `json:"evolved"`
}

// Payload implements Event interface.
func (e SyncCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"creature_id":   e.CreatureID,
		"points_gained": e.PointsGained,
		"tokens_earned": e.TokensEarned,
		"evolved":       e.Evolved,
	}
}

// NewSyncCompletedEvent creates a new SyncCompletedEvent.
func NewSyncCompletedEvent(creatureID string, pointsGained int, tokensEarned int64, evolved bool) SyncCompletedEvent {
	return SyncCompletedEvent{
		BaseEvent:    NewBaseEvent(EventSyncCompleted, creatureID),
		CreatureID:   creatureID,
		PointsGained: pointsGained,
		TokensEarned: tokensEarned,
		Evolved:      evolved,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
