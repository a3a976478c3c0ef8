package speedtest

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

// Built-in defaults: non-production environments use the small file to keep
// bandwidth cost down at the price of measurement fidelity.
const (
	DefaultProductionURL = "https://speed.hetzner.de/100MB.bin"
	DefaultDevURL        = "https://speed.hetzner.de/10MB.bin"
)

// Resolver picks the download test endpoint for a target:
// global override, then the owner's stored preference against the catalog,
// then the environment default. Resolve never fails; any error on the
// preference path falls through to the default.
type Resolver struct {
	Override   string
	Production bool
	Targets    repo.TargetStore
	Prefs      repo.PreferenceStore // optional; nil disables the preference path
	Catalog    *Catalog
	Log        *zap.Logger
}

func (r *Resolver) Resolve(ctx context.Context, targetID domain.TargetID) string {
	if r.Override != "" {
		return r.Override
	}

	if url, ok := r.fromPreference(ctx, targetID); ok {
		return url
	}

	if r.Production {
		return DefaultProductionURL
	}
	return DefaultDevURL
}

func (r *Resolver) fromPreference(ctx context.Context, targetID domain.TargetID) (string, bool) {
	if r.Prefs == nil || r.Catalog == nil || r.Targets == nil {
		return "", false
	}
	t, err := r.Targets.FindByID(ctx, targetID)
	if err != nil || t.OwnerID == "" {
		return "", false
	}
	pref, err := r.Prefs.GetByUserID(ctx, t.OwnerID)
	if err != nil || pref == nil {
		return "", false
	}
	src, ok := r.Catalog.Lookup(pref.SourceID)
	if !ok {
		r.Log.Debug("preference_source_unknown",
			zap.String("user_id", t.OwnerID),
			zap.String("source_id", pref.SourceID),
		)
		return "", false
	}
	return src.URL, true
}
