package treasury

import (
	"context"
	"errors"

	"github.com/alohafunds/engine/fund"
)

// ConfigResult reports what SaveConfig did.
type ConfigResult struct {
	Config fund.Config `json:"config"`
	// LocalOnly lists fields the store could not hold. Their values live
	// in this session only and are lost on restart.
	LocalOnly []fund.ConfigField `json:"local_only,omitempty"`
}

// SaveConfig persists patch. When the store reports unsupported fields the
// save is retried once without them, and they are kept in session state so
// the rest of the application still sees them.
func (s *Session) SaveConfig(ctx context.Context, auth fund.AuthContext, patch fund.ConfigPatch) (ConfigResult, error) {
	if err := s.authorize(ctx, auth, "save_config"); err != nil {
		return ConfigResult{}, err
	}
	if err := patch.Validate(); err != nil {
		return ConfigResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.SaveConfig(ctx, patch)

	var localOnly []fund.ConfigField
	var unsupported *fund.UnsupportedFieldsError
	if errors.As(err, &unsupported) {
		localOnly = unsupported.Fields
		s.logger.WarnContext(ctx, "config fields not supported by store, keeping locally",
			"fields", localOnly)
		stored, err = s.store.SaveConfig(ctx, patch.Without(localOnly...))
	}
	if err != nil {
		return ConfigResult{}, s.storeFailed(ctx, "save_config", err)
	}

	s.mu.Lock()
	// a field the store accepted now is no longer local-only
	s.local = s.local.Without(patch.Fields()...)
	if len(localOnly) > 0 {
		kept := patch.Only(localOnly...)
		s.local = mergePatch(s.local, kept)
	}
	s.snap.Config = s.local.Apply(stored)
	cfg := s.snap.Config
	s.mu.Unlock()

	return ConfigResult{Config: cfg, LocalOnly: localOnly}, nil
}

func mergePatch(base, over fund.ConfigPatch) fund.ConfigPatch {
	if over.MonthlyFee != nil {
		base.MonthlyFee = over.MonthlyFee
	}
	if over.ResortGoalAmount != nil {
		base.ResortGoalAmount = over.ResortGoalAmount
	}
	if over.Template15 != nil {
		base.Template15 = over.Template15
	}
	if over.Template30 != nil {
		base.Template30 = over.Template30
	}
	return base
}
