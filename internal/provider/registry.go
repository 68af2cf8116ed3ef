package provider

import (
	"log/slog"
	"sync"
)

// Selection names an active backend.
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Registry holds the process-wide active text/vision provider pairing.
//
// The pairing is swappable at runtime: callers take a Snapshot at the start
// of an operation and run to completion with that pair, so a swap never
// tears an in-flight call.
type Registry struct {
	mu     sync.RWMutex
	text   TextProvider
	vision VisionProvider

	textSel   Selection
	visionSel Selection

	logger *slog.Logger
}

func NewRegistry(text TextProvider, textSel Selection, vision VisionProvider, visionSel Selection, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		text:      text,
		vision:    vision,
		textSel:   textSel,
		visionSel: visionSel,
		logger:    logger,
	}
}

// Snapshot returns the currently active pairing. The returned providers stay
// valid for the whole operation even if the registry is swapped meanwhile.
func (r *Registry) Snapshot() (TextProvider, VisionProvider) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text, r.vision
}

// Text returns the active text provider.
func (r *Registry) Text() TextProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text
}

// Vision returns the active vision provider.
func (r *Registry) Vision() VisionProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vision
}

// UseText swaps the active text provider.
func (r *Registry) UseText(p TextProvider, sel Selection) {
	r.mu.Lock()
	r.text = p
	r.textSel = sel
	r.mu.Unlock()
	r.logger.Info("provider.swap.text", "provider", sel.Provider, "model", sel.Model)
}

// UseVision swaps the active vision provider.
func (r *Registry) UseVision(p VisionProvider, sel Selection) {
	r.mu.Lock()
	r.vision = p
	r.visionSel = sel
	r.mu.Unlock()
	r.logger.Info("provider.swap.vision", "provider", sel.Provider, "model", sel.Model)
}

// Active reports the current selections.
func (r *Registry) Active() (text, vision Selection) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textSel, r.visionSel
}
