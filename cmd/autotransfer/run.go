package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/ligun0805/auto-transfer/internal/chain"
	"github.com/ligun0805/auto-transfer/internal/config"
	"github.com/ligun0805/auto-transfer/internal/metrics"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

var errAborted = errors.New("aborted by operator")

// settingsFrom reads the environment and applies command-line overrides.
func settingsFrom(c *cli.Context) config.Settings {
	st := config.Load()
	if c.IsSet("networks-file") {
		st.NetworksFile = c.String("networks-file")
	}
	if c.IsSet("wait-receipt") {
		st.WaitReceipt = c.Bool("wait-receipt")
	}
	if c.IsSet("log-level") {
		st.LogLevel = c.String("log-level")
	}
	return st
}

func loadNetworks(st config.Settings) (config.Networks, error) {
	ns, err := config.LoadNetworks(st.NetworksFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return ns, nil
}

func newLogger(st config.Settings) *slog.Logger {
	level, _ := config.ParseLevel(st.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runAction(c *cli.Context) error {
	st := settingsFrom(c)
	if err := st.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(st)
	out := c.App.Writer

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ns, err := loadNetworks(st)
	if err != nil {
		return err
	}
	p := newPrompter(os.Stdin, out)
	n, err := selectNetwork(p, ns, c.String("network"))
	if err != nil {
		return err
	}
	if st.RPCURL != "" {
		n.RPCURL = st.RPCURL
	}

	asset, err := selectAsset(p, n, c.String("kind"))
	if err != nil {
		return err
	}
	to := selectRecipient(p, c.String("recipient"), st.Recipient(), logger)
	in, goal, err := readGoal(p, asset, c.String("amount"), c.String("target"))
	if err != nil {
		return err
	}

	if st.PrivateKeyHex == "" {
		if st.PrivateKeyHex, err = readPassword("Private key (hidden): "); err != nil {
			return err
		}
	}
	from, err := chain.AddressFromKey(st.PrivateKeyHex)
	if err != nil {
		return fmt.Errorf("private key: %w", err)
	}

	client, err := chain.Dial(ctx, n.RPCURL, st.PrivateKeyHex, chain.Options{
		ChainID:    n.ChainIDBig(),
		TipGwei:    st.TipGwei,
		BaseFeeMul: st.BasefeeMul,
		RateLimit:  st.RPCRateLimit,
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	verified := verifyToken(ctx, out, n, asset, client, logger)
	if verified.Decimals != asset.Decimals {
		// Amounts were parsed with the configured decimals; rescale them.
		if goal, err = in.goal(verified); err != nil {
			return err
		}
	}
	asset = verified

	printConfig(out, st, n, from, asset, to.Display(), goal)
	printNetworkState(ctx, out, client, st, asset, n.NativeAsset())
	if !c.Bool("yes") && !yes(p.readLine("Start? (y/N): ")) {
		return errAborted
	}

	var rec transfer.Recorder
	if st.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = metrics.NewMetrics(reg)
		go func() {
			if err := metrics.Serve(ctx, st.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	rep := &reporter{out: out, errOut: c.App.ErrWriter, net: n, asset: asset, target: goal.Target}
	ctrl, err := transfer.NewController(client, transfer.Params{
		RunID:       uuid.NewString(),
		Account:     transfer.Account{Address: client.Address()},
		Asset:       asset,
		Recipient:   to.Address,
		MaxAttempts: st.MaxAttempts,
		Interval:    st.PollInterval,
		WaitReceipt: st.WaitReceipt,
		Logger:      logger,
		Recorder:    rec,
		Hooks:       rep.hooks(),
	})
	if err != nil {
		return err
	}
	_, err = ctrl.Run(ctx, goal)
	return err
}
