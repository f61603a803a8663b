/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cerc-io/beacon-consensus-oracle/internal/boot"
)

var (
	dbUsername             string
	dbPassword             string
	dbName                 string
	dbAddress              string
	dbDriver               string
	dbPort                 int
	rsAddress              string
	rsPort                 int
	rsConnectionProtocol   string
	vsAddress              string
	vsPort                 int
	vsConnectionProtocol   string
	tnAddress              string
	tnPort                 int
	tnConnectionProtocol   string
	appAddress             string
	appPort                int
	appConnectionProtocol  string
	evAddress              string
	evPort                 int
	evConnectionProtocol   string
	maxWaitSecondsShutdown time.Duration  = time.Duration(5) * time.Second
	notifierCh             chan os.Signal = make(chan os.Signal, 1)
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the consensus oracle and the message transceiver",
	Long: `Serve the consensus oracle and the message transceiver.
	The oracle tracks proven state transitions and attested root observations
	in Postgres. The transceiver delivers cross chain messages once their
	commitments reach the two of two confirmation level.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Required Flags

	//// DB Specific
	serveCmd.PersistentFlags().StringVarP(&dbUsername, "db.username", "", "", "Database username (required)")
	serveCmd.PersistentFlags().StringVarP(&dbPassword, "db.password", "", "", "Database Password (required)")
	serveCmd.PersistentFlags().StringVarP(&dbAddress, "db.address", "", "", "Port to connect to DB(required)")
	serveCmd.PersistentFlags().StringVarP(&dbName, "db.name", "n", "", "Database name connect to DB(required)")
	serveCmd.PersistentFlags().StringVarP(&dbDriver, "db.driver", "", "", "Database Driver to connect to DB(required)")
	serveCmd.PersistentFlags().IntVarP(&dbPort, "db.port", "", 0, "Port to connect to DB(required)")
	err := serveCmd.MarkPersistentFlagRequired("db.username")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("db.password")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("db.address")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("db.port")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("db.name")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("db.driver")
	exitErr(err)

	//// Root Source Specific
	serveCmd.PersistentFlags().StringVarP(&rsAddress, "rs.address", "", "", "Address to connect to the historical root source (required)")
	serveCmd.PersistentFlags().IntVarP(&rsPort, "rs.port", "", 0, "Port to connect to the historical root source (required)")
	serveCmd.PersistentFlags().StringVarP(&rsConnectionProtocol, "rs.connectionProtocol", "", "http", "protocol for connecting to the historical root source.")
	err = serveCmd.MarkPersistentFlagRequired("rs.address")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("rs.port")
	exitErr(err)

	//// Verification Sidecar Specific
	serveCmd.PersistentFlags().StringVarP(&vsAddress, "vs.address", "", "", "Address to connect to the proof verification sidecar (required)")
	serveCmd.PersistentFlags().IntVarP(&vsPort, "vs.port", "", 0, "Port to connect to the proof verification sidecar (required)")
	serveCmd.PersistentFlags().StringVarP(&vsConnectionProtocol, "vs.connectionProtocol", "", "http", "protocol for connecting to the proof verification sidecar.")
	err = serveCmd.MarkPersistentFlagRequired("vs.address")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("vs.port")
	exitErr(err)

	//// Guardian Transport Specific
	serveCmd.PersistentFlags().StringVarP(&tnAddress, "tn.address", "", "", "Address to connect to the guardian transport node")
	serveCmd.PersistentFlags().IntVarP(&tnPort, "tn.port", "", 0, "Port to connect to the guardian transport node")
	serveCmd.PersistentFlags().StringVarP(&tnConnectionProtocol, "tn.connectionProtocol", "", "http", "protocol for connecting to the guardian transport node.")

	//// Downstream Application Specific
	serveCmd.PersistentFlags().StringVarP(&appAddress, "app.address", "", "", "Address to connect to the downstream application")
	serveCmd.PersistentFlags().IntVarP(&appPort, "app.port", "", 0, "Port to connect to the downstream application")
	serveCmd.PersistentFlags().StringVarP(&appConnectionProtocol, "app.connectionProtocol", "", "http", "protocol for connecting to the downstream application.")

	//// Event Stream Specific
	serveCmd.PersistentFlags().StringVarP(&evAddress, "ev.address", "", "", "Address to connect to the consensus event stream (required)")
	serveCmd.PersistentFlags().IntVarP(&evPort, "ev.port", "", 0, "Port to connect to the consensus event stream (required)")
	serveCmd.PersistentFlags().StringVarP(&evConnectionProtocol, "ev.connectionProtocol", "", "http", "protocol for connecting to the consensus event stream.")
	err = serveCmd.MarkPersistentFlagRequired("ev.address")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("ev.port")
	exitErr(err)

	//// Chain Schedule Specific
	serveCmd.PersistentFlags().Uint64("chain.genesisTime", 0, "Unix timestamp of the tracked chains genesis")
	serveCmd.PersistentFlags().Uint64("chain.secondsPerSlot", 12, "Seconds between slots on the tracked chain")
	serveCmd.PersistentFlags().Uint64("chain.slotsPerEpoch", 32, "Slots per epoch on the tracked chain")
	serveCmd.PersistentFlags().Uint64("chain.retentionSlots", 8191, "How many slots of history the root source retains")

	//// Oracle Specific
	serveCmd.PersistentFlags().String("oracle.transitionImageId", "", "Proof image identifier for transition proofs (required)")
	serveCmd.PersistentFlags().Uint64("oracle.permissibleTimespan", 86400, "Maximum seconds a pre-states finalized epoch may lag behind now")
	serveCmd.PersistentFlags().Int("oracle.trustedChainId", 0, "Chain id of the single trusted root emitter")
	serveCmd.PersistentFlags().String("oracle.trustedEmitter", "", "Identity of the single trusted root emitter (required)")
	serveCmd.PersistentFlags().Uint64("oracle.justifiedEpoch", 0, "Epoch of the bootstrap justified checkpoint")
	serveCmd.PersistentFlags().String("oracle.justifiedRoot", "", "Root of the bootstrap justified checkpoint (required)")
	serveCmd.PersistentFlags().Uint64("oracle.finalizedEpoch", 0, "Epoch of the bootstrap finalized checkpoint")
	serveCmd.PersistentFlags().String("oracle.finalizedRoot", "", "Root of the bootstrap finalized checkpoint (required)")
	err = serveCmd.MarkPersistentFlagRequired("oracle.transitionImageId")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("oracle.trustedEmitter")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("oracle.justifiedRoot")
	exitErr(err)
	err = serveCmd.MarkPersistentFlagRequired("oracle.finalizedRoot")
	exitErr(err)

	//// Transceiver Specific
	serveCmd.PersistentFlags().Int("xc.localChainId", 0, "Chain id the transceiver delivers messages on")

	// Bind Flags with Viper
	//// DB Flags
	err = viper.BindPFlag("db.username", serveCmd.PersistentFlags().Lookup("db.username"))
	exitErr(err)
	err = viper.BindPFlag("db.password", serveCmd.PersistentFlags().Lookup("db.password"))
	exitErr(err)
	err = viper.BindPFlag("db.address", serveCmd.PersistentFlags().Lookup("db.address"))
	exitErr(err)
	err = viper.BindPFlag("db.port", serveCmd.PersistentFlags().Lookup("db.port"))
	exitErr(err)
	err = viper.BindPFlag("db.name", serveCmd.PersistentFlags().Lookup("db.name"))
	exitErr(err)
	err = viper.BindPFlag("db.driver", serveCmd.PersistentFlags().Lookup("db.driver"))
	exitErr(err)

	//// Root Source Flags
	err = viper.BindPFlag("rs.address", serveCmd.PersistentFlags().Lookup("rs.address"))
	exitErr(err)
	err = viper.BindPFlag("rs.port", serveCmd.PersistentFlags().Lookup("rs.port"))
	exitErr(err)
	err = viper.BindPFlag("rs.connectionProtocol", serveCmd.PersistentFlags().Lookup("rs.connectionProtocol"))
	exitErr(err)

	//// Verification Sidecar Flags
	err = viper.BindPFlag("vs.address", serveCmd.PersistentFlags().Lookup("vs.address"))
	exitErr(err)
	err = viper.BindPFlag("vs.port", serveCmd.PersistentFlags().Lookup("vs.port"))
	exitErr(err)
	err = viper.BindPFlag("vs.connectionProtocol", serveCmd.PersistentFlags().Lookup("vs.connectionProtocol"))
	exitErr(err)

	//// Guardian Transport Flags
	err = viper.BindPFlag("tn.address", serveCmd.PersistentFlags().Lookup("tn.address"))
	exitErr(err)
	err = viper.BindPFlag("tn.port", serveCmd.PersistentFlags().Lookup("tn.port"))
	exitErr(err)
	err = viper.BindPFlag("tn.connectionProtocol", serveCmd.PersistentFlags().Lookup("tn.connectionProtocol"))
	exitErr(err)

	//// Downstream Application Flags
	err = viper.BindPFlag("app.address", serveCmd.PersistentFlags().Lookup("app.address"))
	exitErr(err)
	err = viper.BindPFlag("app.port", serveCmd.PersistentFlags().Lookup("app.port"))
	exitErr(err)
	err = viper.BindPFlag("app.connectionProtocol", serveCmd.PersistentFlags().Lookup("app.connectionProtocol"))
	exitErr(err)

	//// Event Stream Flags
	err = viper.BindPFlag("ev.address", serveCmd.PersistentFlags().Lookup("ev.address"))
	exitErr(err)
	err = viper.BindPFlag("ev.port", serveCmd.PersistentFlags().Lookup("ev.port"))
	exitErr(err)
	err = viper.BindPFlag("ev.connectionProtocol", serveCmd.PersistentFlags().Lookup("ev.connectionProtocol"))
	exitErr(err)

	//// Chain Schedule Flags
	err = viper.BindPFlag("chain.genesisTime", serveCmd.PersistentFlags().Lookup("chain.genesisTime"))
	exitErr(err)
	err = viper.BindPFlag("chain.secondsPerSlot", serveCmd.PersistentFlags().Lookup("chain.secondsPerSlot"))
	exitErr(err)
	err = viper.BindPFlag("chain.slotsPerEpoch", serveCmd.PersistentFlags().Lookup("chain.slotsPerEpoch"))
	exitErr(err)
	err = viper.BindPFlag("chain.retentionSlots", serveCmd.PersistentFlags().Lookup("chain.retentionSlots"))
	exitErr(err)

	//// Oracle Flags
	err = viper.BindPFlag("oracle.transitionImageId", serveCmd.PersistentFlags().Lookup("oracle.transitionImageId"))
	exitErr(err)
	err = viper.BindPFlag("oracle.permissibleTimespan", serveCmd.PersistentFlags().Lookup("oracle.permissibleTimespan"))
	exitErr(err)
	err = viper.BindPFlag("oracle.trustedChainId", serveCmd.PersistentFlags().Lookup("oracle.trustedChainId"))
	exitErr(err)
	err = viper.BindPFlag("oracle.trustedEmitter", serveCmd.PersistentFlags().Lookup("oracle.trustedEmitter"))
	exitErr(err)
	err = viper.BindPFlag("oracle.justifiedEpoch", serveCmd.PersistentFlags().Lookup("oracle.justifiedEpoch"))
	exitErr(err)
	err = viper.BindPFlag("oracle.justifiedRoot", serveCmd.PersistentFlags().Lookup("oracle.justifiedRoot"))
	exitErr(err)
	err = viper.BindPFlag("oracle.finalizedEpoch", serveCmd.PersistentFlags().Lookup("oracle.finalizedEpoch"))
	exitErr(err)
	err = viper.BindPFlag("oracle.finalizedRoot", serveCmd.PersistentFlags().Lookup("oracle.finalizedRoot"))
	exitErr(err)

	//// Transceiver Flags
	err = viper.BindPFlag("xc.localChainId", serveCmd.PersistentFlags().Lookup("xc.localChainId"))
	exitErr(err)
	// Here you will define your flags and configuration settings.

}

// Build the boot settings from the bound configuration.
func bootSettings() boot.Settings {
	return boot.Settings{
		Db: boot.DbSettings{
			Hostname:   viper.GetString("db.address"),
			Port:       viper.GetInt("db.port"),
			Name:       viper.GetString("db.name"),
			Username:   viper.GetString("db.username"),
			Password:   viper.GetString("db.password"),
			DriverName: viper.GetString("db.driver"),
		},
		RootSource: boot.EndpointSettings{
			ConnectionProtocol: viper.GetString("rs.connectionProtocol"),
			Address:            viper.GetString("rs.address"),
			Port:               viper.GetInt("rs.port"),
		},
		Verifier: boot.EndpointSettings{
			ConnectionProtocol: viper.GetString("vs.connectionProtocol"),
			Address:            viper.GetString("vs.address"),
			Port:               viper.GetInt("vs.port"),
		},
		Transport: boot.EndpointSettings{
			ConnectionProtocol: viper.GetString("tn.connectionProtocol"),
			Address:            viper.GetString("tn.address"),
			Port:               viper.GetInt("tn.port"),
		},
		Sink: boot.EndpointSettings{
			ConnectionProtocol: viper.GetString("app.connectionProtocol"),
			Address:            viper.GetString("app.address"),
			Port:               viper.GetInt("app.port"),
		},
		GenesisTime:           viper.GetUint64("chain.genesisTime"),
		SecondsPerSlot:        viper.GetUint64("chain.secondsPerSlot"),
		SlotsPerEpoch:         viper.GetUint64("chain.slotsPerEpoch"),
		RetentionSlots:        viper.GetUint64("chain.retentionSlots"),
		InitialJustifiedEpoch: viper.GetUint64("oracle.justifiedEpoch"),
		InitialJustifiedRoot:  viper.GetString("oracle.justifiedRoot"),
		InitialFinalizedEpoch: viper.GetUint64("oracle.finalizedEpoch"),
		InitialFinalizedRoot:  viper.GetString("oracle.finalizedRoot"),
		TransitionImageID:     viper.GetString("oracle.transitionImageId"),
		PermissibleTimespan:   viper.GetUint64("oracle.permissibleTimespan"),
		TrustedChainID:        uint16(viper.GetInt("oracle.trustedChainId")),
		TrustedEmitter:        viper.GetString("oracle.trustedEmitter"),
		LocalChainID:          uint16(viper.GetInt("xc.localChainId")),
	}
}

// Helper function to catch any errors.
// We need to capture these errors for the linter.
func exitErr(err error) {
	if err != nil {
		os.Exit(1)
	}
}
