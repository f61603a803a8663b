// beacon-consensus-oracle
// Copyright © 2022 Cerc

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/cerc-io/beacon-consensus-oracle/internal/boot"
	"github.com/cerc-io/beacon-consensus-oracle/internal/shutdown"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/tracker"
)

// oracleCmd represents the oracle command
var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Track the consensus oracle feeds only",
	Long: `Track the proven state transition and attested root feeds and keep the
	dual confirmation view in Postgres up to date. Message delivery is not performed.`,
	Run: func(cmd *cobra.Command, args []string) {
		startOracleTracking()
	},
}

// Start the application to track the oracle feeds.
func startOracleTracking() {
	log.Info("Starting the application in oracle tracking mode.")
	ctx := context.Background()

	app, err := boot.BootApplicationWithRetry(ctx, bootSettings())
	if err != nil {
		StopApplicationPreBoot(err, app)
	}

	log.Info("The oracle has booted successfully!")
	tr := tracker.CreateTracker(app.Oracle, app.Transceiver, viper.GetString("ev.connectionProtocol"), viper.GetString("ev.address"), viper.GetInt("ev.port"))

	trackCtx, trackCancel := context.WithCancel(context.Background())
	errG, _ := errgroup.WithContext(context.Background())
	errG.Go(func() error {
		return tr.TrackOracle(trackCtx)
	})

	// Shutdown when the time is right.
	err = shutdown.ShutdownServices(ctx, notifierCh, maxWaitSecondsShutdown, app.Db, tr)
	trackCancel()
	if err != nil {
		loghelper.LogError(err).Error("Ungracefully Shutdown beacon-consensus-oracle!")
	} else {
		log.Info("Gracefully shutdown beacon-consensus-oracle")
	}
	if err := errG.Wait(); err != nil {
		loghelper.LogError(err).Error("Error while tracking the oracle feeds")
	}
}

// Log the error and exit if we could not boot. The application holds no
// connections worth draining at this point.
func StopApplicationPreBoot(startErr error, app *boot.Application) {
	loghelper.LogError(startErr).Error("Unable to Start application")
	if app != nil && app.Db != nil {
		app.Db.Close()
	}
	log.Fatal("Boot failed")
}

func init() {
	serveCmd.AddCommand(oracleCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// oracleCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// oracleCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
