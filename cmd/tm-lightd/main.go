// Command tm-lightd runs a standalone Tendermint-style light client
// daemon: it seeds the trusted anchor from a primary full node, builds a
// Supervisor over the primary and its witnesses, and serves the latest
// trusted block and Prometheus metrics over HTTP. The daemon does not itself
// request any verification from the Supervisor; /latest serves the highest
// Trusted block in the primary's store.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	tmlog "github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/coinexchain/tm-light/config"
	"github.com/coinexchain/tm-light/light"
	lightcrypto "github.com/coinexchain/tm-light/light/crypto"
	httpprovider "github.com/coinexchain/tm-light/light/provider/http"
	dbstore "github.com/coinexchain/tm-light/light/store/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "tm-lightd",
		Short: "Tendermint-style light client daemon",
	}

	root.PersistentFlags().String("config", "", "path to config file (yaml/json/toml)")
	root.PersistentFlags().String("chain-id", "", "chain id to verify")
	root.PersistentFlags().String("primary", "", "primary peer RPC address")
	root.PersistentFlags().StringSlice("witnesses", nil, "witness peer RPC addresses")
	root.PersistentFlags().Duration("trusting-period", 0, "trusting period")
	root.PersistentFlags().Int64("trust-height", 0, "subjective-init trusted height")
	root.PersistentFlags().BytesHex("trust-hash", nil, "subjective-init trusted hash")
	root.PersistentFlags().String("listen-addr", ":26660", "address to serve metrics and the latest trusted block on")

	_ = v.BindPFlags(root.PersistentFlags())
	v.SetEnvPrefix("TM_LIGHTD")
	v.AutomaticEnv()

	root.AddCommand(newStartCmd(v))
	return root
}

func newStartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Seed the trusted anchor from the primary and serve it and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			return run(cfg, v.GetString("listen-addr"))
		},
	}
}

func run(cfg config.Config, listenAddr string) error {
	logger := tmlog.NewTMLogger(tmlog.NewSyncWriter(os.Stdout))

	registry := prometheus.NewRegistry()
	metrics := light.NewMetrics("tm_lightd", registry)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	hasher := lightcrypto.ProdHasher{}
	commitValidator := lightcrypto.ProdCommitValidator{}
	votingPowerCalc := lightcrypto.NewProdVotingPowerCalculator()
	verifier := light.NewPredicateVerifier(hasher, commitValidator, votingPowerCalc)
	scheduler := light.BisectingScheduler{}

	primaryPeer := light.PeerID(cfg.Primary)
	primaryIo := httpprovider.New(cfg.ChainID, primaryPeer, cfg.Primary)
	primaryIo.SetLogger(logger)

	persistentStore := dbstore.New(cfg.ChainID, db).SetLimit(10000)
	persistentStore.SetLogger(logger)
	primaryStore := light.NewCachingStore(persistentStore)
	primaryState := light.NewState(primaryStore)

	if err := seedTrustedBlock(primaryState, primaryIo, cfg); err != nil {
		return err
	}

	primaryClient := light.NewLightClient(cfg.ChainID, primaryPeer, cfg.Options(), light.SystemClock{},
		scheduler, verifier, hasher, primaryIo, primaryState)
	primaryClient.SetLogger(logger)

	witnesses := make(map[light.PeerID]*light.Instance, len(cfg.Witnesses))
	for _, addr := range cfg.Witnesses {
		peer := light.PeerID(addr)
		io := httpprovider.New(cfg.ChainID, peer, addr)
		io.SetLogger(logger)

		store := light.NewMemoryStore()
		state := light.NewState(store)
		if trusted, ok := primaryState.Store.HighestTrustedOrVerified(); ok {
			store.Insert(trusted, light.StatusTrusted)
		}

		client := light.NewLightClient(cfg.ChainID, peer, cfg.Options(), light.SystemClock{},
			scheduler, verifier, hasher, io, state)
		client.SetLogger(logger)

		witnesses[peer] = light.NewInstance(client, state)
	}

	peers := light.NewPeerList(primaryPeer, light.NewInstance(primaryClient, primaryState), witnesses)
	detector := light.NewDefaultForkDetector(cfg.ChainID, cfg.Options(), light.SystemClock{}, scheduler, verifier, hasher)
	detector.SetLogger(logger)

	reporter := primaryIo // Provider implements both Io and EvidenceReporter

	supervisor := light.NewSupervisor(peers, detector, reporter)
	supervisor.SetLogger(logger)
	supervisor.SetMetrics(metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/latest", latestTrustedHandler(supervisor))

	logger.Info("tm-lightd listening", "addr", listenAddr)
	return http.ListenAndServe(listenAddr, mux)
}

func openDB(cfg config.Config) (dbm.DB, error) {
	if cfg.DBBackend == "memdb" {
		return dbm.NewMemDB(), nil
	}
	return dbm.NewGoLevelDB("light-client-db", cfg.DBDir)
}

// seedTrustedBlock implements the weak-subjectivity bootstrap: fetch the
// operator-pinned height from the primary and, once its hash matches,
// install it as the sole Trusted anchor.
func seedTrustedBlock(state *light.State, io light.Io, cfg config.Config) error {
	if _, ok := state.Store.HighestTrustedOrVerified(); ok {
		return nil
	}

	block, err := io.FetchLightBlock(light.At(cfg.TrustHeight))
	if err != nil {
		return fmt.Errorf("fetching subjective-init anchor: %w", err)
	}
	if block.Height() != cfg.TrustHeight {
		return light.ErrHeightMismatch(cfg.TrustHeight, block.Height())
	}

	hasher := lightcrypto.ProdHasher{}
	got := hasher.HashHeader(block.SignedHeader.Header)
	if len(cfg.TrustHash) > 0 && string(got) != string(cfg.TrustHash) {
		return light.ErrHashMismatch(cfg.TrustHash, got)
	}

	state.Store.Insert(block, light.StatusTrusted)
	return nil
}

func latestTrustedHandler(supervisor *light.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		block, ok := supervisor.LatestTrusted()
		if !ok {
			http.Error(w, "no trusted block yet", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "height=%d hash=%X time=%s\n",
			block.Height(), block.SignedHeader.Commit.BlockID.Hash, block.Time())
	}
}
