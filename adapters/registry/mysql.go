package registry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/layer-3/ethauth/core"
)

const selectApps = "SELECT id, name, redirect_uri FROM apps ORDER BY id"

// LoadDB reads every row of the apps table once. The returned registry does
// not see later changes to the table.
func LoadDB(ctx context.Context, db *sql.DB) (*Static, error) {
	rows, err := db.QueryContext(ctx, selectApps)
	if err != nil {
		return nil, fmt.Errorf("%w: query apps: %w", core.ErrConfiguration, err)
	}
	defer rows.Close()

	var apps []core.AppConfig
	for rows.Next() {
		var app core.AppConfig
		if err := rows.Scan(&app.ID, &app.Name, &app.RedirectURI); err != nil {
			return nil, fmt.Errorf("%w: scan app: %w", core.ErrConfiguration, err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate apps: %w", core.ErrConfiguration, err)
	}

	return NewStatic(apps)
}
