package shutdown

import (
	"context"
	"os"
	"time"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/gracefulshutdown"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/tracker"
)

// Shutdown all the internal services for the application.
func ShutdownServices(ctx context.Context, notifierCh chan os.Signal, waitTime time.Duration, DB sql.Database, tr *tracker.Tracker) error {
	successCh, errCh := gracefulshutdown.Shutdown(ctx, notifierCh, waitTime, map[string]gracefulshutdown.Operation{
		// Combining DB shutdown with the tracker because the tracker needs the DB open to drain cleanly.
		"tracker": func(ctx context.Context) error {
			defer DB.Close()
			err := tr.StopTracking()
			if err != nil {
				loghelper.LogError(err).Error("Unable to trigger shutdown of the event tracker")
			}
			return err
		},
	})

	select {
	case <-successCh:
		return nil
	case err := <-errCh:
		return err
	}
}
