package ports

import "github.com/layer-3/ethauth/core"

// Registry resolves registered applications. A miss returns core.ErrUnknownApp.
type Registry interface {
	Lookup(appID string) (core.AppConfig, error)
}
