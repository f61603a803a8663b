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
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cerc-io/beacon-consensus-oracle/internal/boot"
	"github.com/cerc-io/beacon-consensus-oracle/internal/shutdown"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/tracker"
)

// bootCmd represents the boot command
var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Run the boot command then exit",
	Long:  `Run the application to boot and exit. Primarily used for testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		bootApp()
	},
}

func bootApp() {

	// Boot the application
	log.Info("Starting the application in boot mode.")
	ctx := context.Background()

	app, err := boot.BootApplicationWithRetry(ctx, bootSettings())
	if err != nil {
		StopApplicationPreBoot(err, app)
	}

	log.Info("Boot complete, we are going to shutdown.")

	tr := tracker.CreateTracker(app.Oracle, app.Transceiver, viper.GetString("ev.connectionProtocol"), viper.GetString("ev.address"), viper.GetInt("ev.port"))

	notifierCh := make(chan os.Signal, 1)

	go func() {
		notifierCh <- syscall.SIGTERM
	}()

	err = shutdown.ShutdownServices(ctx, notifierCh, maxWaitSecondsShutdown, app.Db, tr)
	if err != nil {
		loghelper.LogError(err).Error("Ungracefully Shutdown beacon-consensus-oracle!")
	} else {
		log.Info("Gracefully shutdown beacon-consensus-oracle")
	}
}

func init() {
	serveCmd.AddCommand(bootCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// bootCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// bootCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
