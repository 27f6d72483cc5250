// Package postgres implements the PostgreSQL persistence layer for the
// VentureHub readiness engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ASSESSMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create assessments table
-- Version: 001
-- Assessments are write-once: a retake is a new row, never an UPDATE.

CREATE TABLE IF NOT EXISTS assessments (
    id UUID PRIMARY KEY,
    owner_id VARCHAR(100) NOT NULL,
    startup_name VARCHAR(255) NOT NULL DEFAULT '',
    answers JSONB NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_assessments_owner ON assessments(owner_id);
CREATE INDEX IF NOT EXISTS idx_assessments_submitted ON assessments(submitted_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS assessments;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE SCORES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create score results and audit trail
-- Version: 002
-- Superseded rows are never deleted; the partial unique index enforces
-- at most one current row per assessment.

CREATE TABLE IF NOT EXISTS score_results (
    id UUID PRIMARY KEY,
    assessment_id UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
    rule_set_version VARCHAR(30) NOT NULL,
    bucket VARCHAR(30) NOT NULL,
    dimensions JSONB NOT NULL,
    total_score INTEGER NOT NULL,
    computed_at TIMESTAMP WITH TIME ZONE NOT NULL,
    computed_by VARCHAR(30) NOT NULL,
    superseded BOOLEAN NOT NULL DEFAULT FALSE,

    CONSTRAINT valid_total_score CHECK (total_score >= 0 AND total_score <= 100)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_score_results_current
    ON score_results(assessment_id) WHERE NOT superseded;
CREATE INDEX IF NOT EXISTS idx_score_results_assessment ON score_results(assessment_id);
CREATE INDEX IF NOT EXISTS idx_score_results_version
    ON score_results(rule_set_version) WHERE NOT superseded;

-- Append-only audit trail of every score transition. No UPDATE or DELETE
-- path exists in the application; the sequence id keeps per-assessment
-- chains in insertion order.
CREATE TABLE IF NOT EXISTS score_audit_entries (
    seq BIGSERIAL PRIMARY KEY,
    id UUID NOT NULL UNIQUE,
    assessment_id UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
    previous_score_result_id UUID,
    new_score_result_id UUID NOT NULL REFERENCES score_results(id),
    rule_set_version_before VARCHAR(30) NOT NULL DEFAULT '',
    rule_set_version_after VARCHAR(30) NOT NULL,
    total_score_before INTEGER NOT NULL DEFAULT 0,
    total_score_after INTEGER NOT NULL,
    triggered_by VARCHAR(100) NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_score_audit_assessment
    ON score_audit_entries(assessment_id, seq);
`

const migration002Down = `
DROP TABLE IF EXISTS score_audit_entries;
DROP TABLE IF EXISTS score_results;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RULE SETS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create versioned rule set store
-- Version: 003
-- Published versions are immutable. The single-row active pointer is
-- switched with a compare-and-set UPDATE, never rewritten in place.

CREATE TABLE IF NOT EXISTS rule_sets (
    version VARCHAR(30) PRIMARY KEY,
    dimension_weights JSONB NOT NULL,
    sector_overrides JSONB NOT NULL DEFAULT '{}'::jsonb,
    published_at TIMESTAMP WITH TIME ZONE NOT NULL,
    published_by VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Single-row table holding the active version pointer.
CREATE TABLE IF NOT EXISTS active_rule_set (
    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE,
    version VARCHAR(30) NOT NULL REFERENCES rule_sets(version),
    activated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT one_row CHECK (singleton)
);
`

const migration003Down = `
DROP TABLE IF EXISTS active_rule_set;
DROP TABLE IF EXISTS rule_sets;
`
