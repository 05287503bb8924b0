package registry

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
)

// Static is an immutable registry built once at start-up
type Static struct {
	apps map[string]core.AppConfig
}

var _ ports.Registry = (*Static)(nil)

// NewStatic validates apps and indexes them by id. Duplicate ids, empty
// fields or non-absolute redirect URIs are configuration errors.
func NewStatic(apps []core.AppConfig) (*Static, error) {
	index := make(map[string]core.AppConfig, len(apps))
	for _, app := range apps {
		if err := validate(app); err != nil {
			return nil, err
		}
		if _, exists := index[app.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate app id %q", core.ErrConfiguration, app.ID)
		}
		index[app.ID] = app
	}
	return &Static{apps: index}, nil
}

// Lookup returns the app registered under appID
func (r *Static) Lookup(appID string) (core.AppConfig, error) {
	app, ok := r.apps[appID]
	if !ok {
		return core.AppConfig{}, fmt.Errorf("%w: %q", core.ErrUnknownApp, appID)
	}
	return app, nil
}

// IDs returns the registered app ids in sorted order
func (r *Static) IDs() []string {
	ids := make([]string, 0, len(r.apps))
	for id := range r.apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validate(app core.AppConfig) error {
	if app.ID == "" {
		return fmt.Errorf("%w: app with empty id", core.ErrConfiguration)
	}
	if app.Name == "" {
		return fmt.Errorf("%w: app %q has no name", core.ErrConfiguration, app.ID)
	}
	u, err := url.Parse(app.RedirectURI)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: app %q has invalid redirect uri %q", core.ErrConfiguration, app.ID, app.RedirectURI)
	}
	return nil
}
