package server

import (
	"net/http"
	"time"

	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/provider"
	"github.com/aquila-docs/aquila/internal/provider/factory"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"providers": factory.ValidateConfig(s.cfg.Provider),
	})
}

func (s *Server) handleGetProviders(w http.ResponseWriter, r *http.Request) {
	text, vision := s.registry.Active()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"text":      text,
		"vision":    vision,
		"available": factory.Available,
		"config":    factory.ValidateConfig(s.cfg.Provider),
	})
}

// handleSetProviders hot-swaps the active backends. Swapping is all or
// nothing per capability; in-flight pipeline runs keep the pairing they
// captured at start.
func (s *Server) handleSetProviders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TextProvider   string `json:"text_provider"`
		TextModel      string `json:"text_model"`
		VisionProvider string `json:"vision_provider"`
		VisionModel    string `json:"vision_model"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.TextProvider != "" {
		text, err := factory.NewTextProvider(req.TextProvider, req.TextModel, s.cfg.Provider, s.log)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.registry.UseText(text, provider.Selection{Provider: req.TextProvider, Model: req.TextModel})
	}
	if req.VisionProvider != "" {
		vision, err := factory.NewVisionProvider(req.VisionProvider, req.VisionModel, s.cfg.Provider, s.log)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.registry.UseVision(vision, provider.Selection{Provider: req.VisionProvider, Model: req.VisionModel})
	}

	text, vision := s.registry.Active()
	s.writeJSON(w, http.StatusOK, map[string]any{"text": text, "vision": vision})
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	s.rulesMu.RLock()
	rules := s.rules
	s.rulesMu.RUnlock()
	s.writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleGetDefaultRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, brex.DefaultRules())
}

// handleSwapRules replaces the active rule set; re-running validation after
// this reflects the new rules with no migration step.
func (s *Server) handleSwapRules(w http.ResponseWriter, r *http.Request) {
	var rules brex.RuleSet
	if !s.decodeJSON(w, r, &rules) {
		return
	}
	if err := s.validator.Swap(rules); err != nil {
		s.writeError(w, err)
		return
	}
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"rules": len(rules)})
}
