// Command beaconnode is the consensus core's process entrypoint,
// grounded on original_source/src/bin/node.rs's flag surface and the
// teacher's urfave/cli/v2 + automaxprocs startup convention.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/republic-chain/proof-of-stake/blockchain"
	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/keystore"
	"github.com/republic-chain/proof-of-stake/logutil"
	"github.com/republic-chain/proof-of-stake/params"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

const (
	exitClean   = 0
	exitStartup = 1
	exitRuntime = 2
)

var log = logutil.New("beaconnode")

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {})); err != nil {
		// GOMAXPROCS tuning is best-effort; a cgroup-less environment
		// (a laptop, most CI) is not a startup failure.
		log.WithError(err).Debug("automaxprocs: could not set GOMAXPROCS")
	}

	app := &cli.App{
		Name:  "beaconnode",
		Usage: "proof-of-stake consensus node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "configuration file path"},
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "data directory path"},
			&cli.StringFlag{Name: "network", Aliases: []string{"n"}, Value: "devnet", Usage: "mainnet|testnet|devnet"},
			&cli.BoolFlag{Name: "validator", Usage: "enable validator mode"},
			&cli.UintFlag{Name: "port", Aliases: []string{"p"}, Usage: "network port to listen on"},
			&cli.UintFlag{Name: "node-id", Usage: "local node ID for testing (0-9), test-only"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"v"}, Value: "info", Usage: "trace|debug|info|warn|error"},
		},
		Action: runNode,
		Commands: []*cli.Command{
			keystoreCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		code := exitRuntime
		if _, ok := err.(*startupError); ok {
			code = exitStartup
		}
		logrus.WithError(err).Error("beaconnode exiting")
		os.Exit(code)
	}
	os.Exit(exitClean)
}

// startupError marks a failure that occurred before the node began
// running, mapped to exit code 1 rather than 2 per spec.md §6.
type startupError struct{ err error }

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

func wrapStartup(err error) error {
	if err == nil {
		return nil
	}
	return &startupError{err: err}
}

func runNode(c *cli.Context) error {
	if err := logutil.Configure(c.String("log-level")); err != nil {
		return wrapStartup(fmt.Errorf("configure logging: %w", err))
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return wrapStartup(fmt.Errorf("load config %s: %w", path, err))
		}
		cfg = loaded
		log.WithField("path", path).Info("configuration loaded")
	} else {
		log.Info("no --config given, using default configuration")
	}

	if dir := c.String("data-dir"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	if network := c.String("network"); network != "" {
		id, err := primitives.ParseNetworkID(network)
		if err != nil {
			return wrapStartup(fmt.Errorf("parse --network: %w", err))
		}
		cfg.Network.NetworkID = id
	}
	if c.Bool("validator") {
		cfg.Validator.Enabled = true
	}
	if port := c.Uint("port"); port != 0 {
		cfg.Network.Port = uint16(port)
	}
	if c.IsSet("node-id") {
		applyNodeIDTestOverrides(cfg, uint8(c.Uint("node-id")))
	}

	cfgStore := config.NewStore(cfg)
	if path := c.String("config"); path != "" {
		stop := make(chan struct{})
		defer close(stop)
		if err := cfgStore.Watch(path, stop); err != nil {
			log.WithError(err).Warn("config hot-reload disabled")
		}
	}

	validatorSet := validators.NewSet(
		primitives.Amount(params.BeaconConfig().MinStake),
		int(params.BeaconConfig().MaxValidators),
		0,
	)

	if cfg.Validator.Enabled {
		if cfg.Validator.KeystorePath == "" {
			return wrapStartup(fmt.Errorf("validator.enabled is true but validator.keystore_path is empty"))
		}
		doc, err := keystore.Load(cfg.Validator.KeystorePath)
		if err != nil {
			return wrapStartup(fmt.Errorf("load validator keystore: %w", err))
		}
		kp, err := doc.KeyPair()
		if err != nil {
			return wrapStartup(fmt.Errorf("decode validator keystore: %w", err))
		}
		v := validators.New(kp.Address, kp.Public, primitives.Amount(params.BeaconConfig().MinStake), 0, 0, blocks.ValidatorMetadata{})
		if err := validatorSet.Add(v); err != nil {
			return wrapStartup(fmt.Errorf("register local validator: %w", err))
		}
		log.WithField("address", kp.Address.String()).Info("validator mode enabled")
	}

	clock := blockchain.NewClock(time.Now())
	svc := blockchain.New(clock, primitives.ZeroHash, validatorSet)
	actor := blockchain.NewActor(svc)

	gossip := make(chan blockchain.GossipMessage)
	defer close(gossip)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithFields(logrus.Fields{
		"network":  cfg.Network.NetworkID,
		"port":     cfg.Network.Port,
		"data_dir": cfg.Storage.DataDir,
	}).Info("starting beaconnode")

	err := blockchain.RunEngine(ctx, actor, gossip)
	if err != nil && ctx.Err() != nil {
		log.Info("shutdown signal received, stopped cleanly")
		return nil
	}
	return err
}

// applyNodeIDTestOverrides mirrors original_source/src/bin/node.rs's
// --node-id convenience: binds to localhost and derives this node's
// bootstrap peer list from a fixed 3-node devnet layout, used only by
// local multi-node test harnesses.
func applyNodeIDTestOverrides(cfg *config.NodeConfig, nodeID uint8) {
	cfg.Network.ListenAddress = "127.0.0.1"

	basePort := uint16(9000)
	if cfg.Network.Port >= uint16(nodeID) {
		basePort = cfg.Network.Port - uint16(nodeID)
	}

	cfg.Network.BootstrapNodes = cfg.Network.BootstrapNodes[:0]
	for i := uint8(0); i < 3; i++ {
		if i == nodeID {
			continue
		}
		cfg.Network.BootstrapNodes = append(cfg.Network.BootstrapNodes,
			fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", basePort+uint16(i)))
	}
}

func keystoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "keystore",
		Usage: "validator key management",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "generate a new validator keystore",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "validator_key.json", Usage: "output file"},
					&cli.BoolFlag{Name: "mnemonic", Usage: "derive the key from a freshly generated BIP-39 mnemonic instead of raw randomness"},
				},
				Action: newKeystore,
			},
		},
	}
}

func newKeystore(c *cli.Context) error {
	out := c.String("out")
	if _, err := os.Stat(out); err == nil {
		overwrite, err := keystore.ConfirmOverwrite(out)
		if err != nil {
			return wrapStartup(err)
		}
		if !overwrite {
			fmt.Println("aborted")
			return nil
		}
	}

	var doc *keystore.Document
	if c.Bool("mnemonic") {
		mnemonic, err := keystore.GenerateMnemonic()
		if err != nil {
			return wrapStartup(err)
		}
		_, doc, err = keystore.FromMnemonic(mnemonic, "")
		if err != nil {
			return wrapStartup(err)
		}
		fmt.Println("recovery mnemonic (write this down, it will not be shown again):")
		fmt.Println(mnemonic)
	} else {
		_, generated, err := keystore.Generate()
		if err != nil {
			return wrapStartup(err)
		}
		doc = generated
	}

	if err := keystore.Save(out, doc); err != nil {
		return wrapStartup(err)
	}
	fmt.Printf("keystore written to %s\naddress: %s\n", out, doc.Address)
	return nil
}
