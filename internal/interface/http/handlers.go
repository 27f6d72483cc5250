package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/venturehub/readiness-hub/internal/application/command"
	"github.com/venturehub/readiness-hub/internal/application/query"
	"github.com/venturehub/readiness-hub/internal/domain/assessment"
	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// maxRequestBody bounds JSON request bodies (1 MB).
const maxRequestBody = 1 << 20

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Readiness Hub API",
		"version":     "v1",
		"description": "Versioned investment-readiness scoring for startup assessments",
		"endpoints": map[string]string{
			"health":      "/health",
			"assessments": "/api/v1/assessments",
			"top_scores":  "/api/v1/scores/top",
			"rulesets":    "/api/v1/rulesets",
			"rescore":     "/api/v1/rescore",
			"stats":       "/api/v1/stats",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleGetStats handles GET /api/v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}
	for name, provider := range s.deps.StatsProviders {
		stats[name] = provider()
	}

	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT & SCORE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// submitAssessmentRequest is the body of POST /api/v1/assessments.
type submitAssessmentRequest struct {
	OwnerID     string             `json:"ownerId"`
	StartupName string             `json:"startupName"`
	Answers     assessment.Answers `json:"answers"`

	// RuleSetVersion pins an explicit methodology version.
	// Empty means the currently active one.
	RuleSetVersion string `json:"ruleSetVersion,omitempty"`
}

// handleSubmitAssessment handles POST /api/v1/assessments
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	if s.deps.ScoreAssessmentHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scoring handler not configured")
		return
	}

	var req submitAssessmentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ScoreAssessmentHandler.Handle(r.Context(), command.ScoreAssessmentCommand{
		OwnerID:        req.OwnerID,
		StartupName:    req.StartupName,
		Answers:        req.Answers,
		RuleSetVersion: req.RuleSetVersion,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"assessmentId": result.AssessmentID,
		"score":        query.NewScoreDTO(result.ScoreResult),
	})
}

// handleGetScore handles GET /api/v1/assessments/{id}/score
func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetScoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Score handler not configured")
		return
	}

	dto, err := s.deps.GetScoreHandler.Handle(r.Context(), query.GetScoreQuery{
		AssessmentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// handleGetScoreHistory handles GET /api/v1/assessments/{id}/history
func (s *Server) handleGetScoreHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetScoreHistoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "History handler not configured")
		return
	}

	entries, err := s.deps.GetScoreHistoryHandler.Handle(r.Context(), query.GetScoreHistoryQuery{
		AssessmentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, entries, &ResponseMeta{TotalCount: len(entries)})
}

// handleGetTopScores handles GET /api/v1/scores/top
func (s *Server) handleGetTopScores(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTopScoresHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Top scores handler not configured")
		return
	}

	entries, err := s.deps.GetTopScoresHandler.Handle(r.Context(), query.GetTopScoresQuery{
		Limit: getQueryParamInt(r, "limit", 10),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, entries, &ResponseMeta{TotalCount: len(entries)})
}

// ══════════════════════════════════════════════════════════════════════════════
// RULESET HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListRuleSets handles GET /api/v1/rulesets
func (s *Server) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListRuleSetsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Ruleset handler not configured")
		return
	}

	dtos, err := s.deps.ListRuleSetsHandler.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, dtos, &ResponseMeta{TotalCount: len(dtos)})
}

// publishRuleSetRequest is the body of POST /api/v1/rulesets.
type publishRuleSetRequest struct {
	Document    ruleset.Document `json:"document"`
	Activate    bool             `json:"activate,omitempty"`
	PublishedBy string           `json:"publishedBy"`
}

// handlePublishRuleSet handles POST /api/v1/rulesets
func (s *Server) handlePublishRuleSet(w http.ResponseWriter, r *http.Request) {
	if s.deps.PublishRuleSetHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Ruleset handler not configured")
		return
	}

	var req publishRuleSetRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.PublishRuleSetHandler.Handle(r.Context(), command.PublishRuleSetCommand{
		Document:    req.Document,
		Activate:    req.Activate,
		PublishedBy: req.PublishedBy,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"version":   result.Version,
		"activated": result.Activated,
	})
}

// activateRuleSetRequest is the body of POST /api/v1/rulesets/{version}/activate.
type activateRuleSetRequest struct {
	ActivatedBy string `json:"activatedBy"`
}

// handleActivateRuleSet handles POST /api/v1/rulesets/{version}/activate
func (s *Server) handleActivateRuleSet(w http.ResponseWriter, r *http.Request) {
	if s.deps.ActivateRuleSetHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Ruleset handler not configured")
		return
	}

	var req activateRuleSetRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	version := r.PathValue("version")
	if err := s.deps.ActivateRuleSetHandler.Handle(r.Context(), command.ActivateRuleSetCommand{
		Version:     version,
		ActivatedBy: req.ActivatedBy,
	}); err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"version": version,
		"status":  "active",
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RE-SCORE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// rescoreRequest is the body of POST /api/v1/rescore.
type rescoreRequest struct {
	TargetVersion string `json:"targetVersion"`
	Reason        string `json:"reason"`
	TriggeredBy   string `json:"triggeredBy"`

	Selector struct {
		AssessmentIDs     []string `json:"assessmentIds,omitempty"`
		OwnerID           string   `json:"ownerId,omitempty"`
		VersionConstraint string   `json:"versionConstraint,omitempty"`
	} `json:"selector,omitempty"`
}

// handleRescore handles POST /api/v1/rescore
// The batch runs synchronously; clients with large populations should
// rely on the scheduled job instead.
func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	if s.deps.RescoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Re-score handler not configured")
		return
	}

	var req rescoreRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RescoreHandler.Handle(r.Context(), command.RescoreCommand{
		Selector: scoring.Selector{
			AssessmentIDs:     req.Selector.AssessmentIDs,
			OwnerID:           req.Selector.OwnerID,
			VersionConstraint: req.Selector.VersionConstraint,
		},
		TargetVersion: req.TargetVersion,
		Reason:        req.Reason,
		TriggeredBy:   req.TriggeredBy,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleLastRescore handles GET /api/v1/rescore/last
func (s *Server) handleLastRescore(w http.ResponseWriter, r *http.Request) {
	if s.deps.RescoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Re-score handler not configured")
		return
	}

	result := s.deps.RescoreHandler.LastResult()
	if result == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "No re-score batch has run yet")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing the error response itself.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return false
	}

	return true
}

// writeDomainError maps domain errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, shared.ErrConcurrentModification):
		writeJSONError(w, http.StatusConflict, "concurrent_modification", err.Error())
	case shared.IsConfiguration(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_ruleset", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
