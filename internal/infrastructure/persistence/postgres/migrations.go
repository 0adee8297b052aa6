// Package postgres implements the PostgreSQL persistence layer for Regenmon Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE CREATURES & LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create creatures, transactions and sync snapshots
-- Version: 001

-- Main creatures table. Stats are valid as of stats_updated_at; readers
-- catch up decay before trusting them.
CREATE TABLE IF NOT EXISTS creatures (
    id UUID PRIMARY KEY,
    owner_id VARCHAR(100) NOT NULL UNIQUE,
    name VARCHAR(50) NOT NULL,
    app_url VARCHAR(500) NOT NULL UNIQUE,
    happiness INTEGER NOT NULL DEFAULT 50,
    energy INTEGER NOT NULL DEFAULT 50,
    hunger INTEGER NOT NULL DEFAULT 50,
    stage INTEGER NOT NULL DEFAULT 1,
    total_points INTEGER NOT NULL DEFAULT 0,
    balance BIGINT NOT NULL DEFAULT 0,
    training_count INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    died_at TIMESTAMP WITH TIME ZONE,
    stats_updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_sync_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_happiness CHECK (happiness >= 0 AND happiness <= 100),
    CONSTRAINT valid_energy CHECK (energy >= 0 AND energy <= 100),
    CONSTRAINT valid_hunger CHECK (hunger >= 0 AND hunger <= 100),
    CONSTRAINT valid_stage CHECK (stage >= 1 AND stage <= 3),
    CONSTRAINT valid_points CHECK (total_points >= 0),
    CONSTRAINT valid_balance CHECK (balance >= 0)
);

CREATE INDEX IF NOT EXISTS idx_creatures_owner_id ON creatures(owner_id);
CREATE INDEX IF NOT EXISTS idx_creatures_app_url ON creatures(app_url);
CREATE INDEX IF NOT EXISTS idx_creatures_total_points ON creatures(total_points DESC);
CREATE INDEX IF NOT EXISTS idx_creatures_last_sync_at ON creatures(last_sync_at) WHERE is_active AND died_at IS NULL;

-- Append-only token ledger. Rows are never updated or deleted; the sum of
-- amounts per creature must equal the stored balance at all times.
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    creature_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    amount BIGINT NOT NULL,
    balance_before BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    reason VARCHAR(500) NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_type CHECK (type IN ('reward', 'feed', 'revive', 'evolution', 'gift', 'admin_adjustment')),
    CONSTRAINT balance_arithmetic CHECK (balance_after = balance_before + amount),
    CONSTRAINT non_negative_result CHECK (balance_after >= 0)
);

CREATE INDEX IF NOT EXISTS idx_transactions_creature_id ON transactions(creature_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);

-- Per-sync progress snapshots. History only - never fed back into the engine.
CREATE TABLE IF NOT EXISTS creature_snapshots (
    id UUID PRIMARY KEY,
    creature_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    balance BIGINT NOT NULL,
    total_points INTEGER NOT NULL,
    training_count INTEGER NOT NULL,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_creature_taken ON creature_snapshots(creature_id, taken_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS creature_snapshots;
DROP TABLE IF EXISTS transactions;
DROP TABLE IF EXISTS creatures;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TRAINING
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create training sessions and chat exchanges
-- Version: 002

CREATE TABLE IF NOT EXISTS training_sessions (
    id UUID PRIMARY KEY,
    creature_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    prompt TEXT NOT NULL,
    feedback TEXT NOT NULL DEFAULT '',
    score INTEGER NOT NULL,
    fallback BOOLEAN NOT NULL DEFAULT FALSE,
    points_earned INTEGER NOT NULL DEFAULT 0,
    tokens_earned BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_sessions_creature_created ON training_sessions(creature_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON training_sessions(created_at DESC);

CREATE TABLE IF NOT EXISTS chat_exchanges (
    id UUID PRIMARY KEY,
    creature_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    prompt TEXT NOT NULL,
    reply TEXT NOT NULL,
    fallback BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_exchanges_creature_created ON chat_exchanges(creature_id, created_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS chat_exchanges;
DROP TABLE IF EXISTS training_sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SOCIAL
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create messages, visits and the interaction stream
-- Version: 003

CREATE TABLE IF NOT EXISTS messages (
    id UUID PRIMARY KEY,
    from_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    to_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    body VARCHAR(280) NOT NULL,
    read_at TIMESTAMP WITH TIME ZONE,
    sent_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_inbox ON messages(to_id, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_outbox ON messages(from_id, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(to_id) WHERE read_at IS NULL;

CREATE TABLE IF NOT EXISTS visits (
    id UUID PRIMARY KEY,
    visitor_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    host_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    visited_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_visits_host_time ON visits(host_id, visited_at DESC);

-- Denormalized activity stream: one row per feed, gift, message or visit.
CREATE TABLE IF NOT EXISTS interactions (
    id UUID PRIMARY KEY,
    kind VARCHAR(20) NOT NULL,
    actor_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    target_id UUID NOT NULL REFERENCES creatures(id) ON DELETE CASCADE,
    amount BIGINT NOT NULL DEFAULT 0,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('feed', 'gift', 'message', 'visit'))
);

CREATE INDEX IF NOT EXISTS idx_interactions_actor_time ON interactions(actor_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_target_time ON interactions(target_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_policy ON interactions(actor_id, kind, occurred_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS interactions;
DROP TABLE IF EXISTS visits;
DROP TABLE IF EXISTS messages;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE LEADERBOARD & HUB STATS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create the materialized leaderboard and the stats snapshots
-- Version: 004

-- Materialized ranking, replaced wholesale by the rebuild job.
CREATE TABLE IF NOT EXISTS leaderboard_entries (
    creature_id UUID PRIMARY KEY REFERENCES creatures(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    name VARCHAR(50) NOT NULL,
    stage INTEGER NOT NULL,
    total_points INTEGER NOT NULL,
    balance BIGINT NOT NULL,
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL,
    is_alive BOOLEAN NOT NULL DEFAULT TRUE,
    rank_change INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rank CHECK (rank >= 1)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard_entries(rank);

-- Point-in-time hub aggregates for the admin dashboard.
CREATE TABLE IF NOT EXISTS hub_stats (
    id UUID PRIMARY KEY,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    total_creatures INTEGER NOT NULL,
    alive_creatures INTEGER NOT NULL,
    dead_creatures INTEGER NOT NULL,
    active_creatures INTEGER NOT NULL,
    by_stage JSONB NOT NULL DEFAULT '{}'::jsonb,
    total_points INTEGER NOT NULL,
    tokens_in_circulation BIGINT NOT NULL,
    tokens_earned_24h BIGINT NOT NULL DEFAULT 0,
    tokens_spent_24h BIGINT NOT NULL DEFAULT 0,
    transactions_24h INTEGER NOT NULL DEFAULT 0,
    trainings_24h INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_hub_stats_taken_at ON hub_stats(taken_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS hub_stats;
DROP TABLE IF EXISTS leaderboard_entries;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create the owner notification feed
-- Version: 005

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    recipient_id VARCHAR(100) NOT NULL,
    creature_id UUID NOT NULL,
    type VARCHAR(30) NOT NULL,
    title VARCHAR(200) NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    read_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_feed ON notifications(recipient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(recipient_id) WHERE read_at IS NULL;
`

const migration005Down = `
DROP TABLE IF EXISTS notifications;
`
