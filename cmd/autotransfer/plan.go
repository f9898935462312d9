package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/auto-transfer/internal/amount"
	"github.com/ligun0805/auto-transfer/internal/config"
	"github.com/ligun0805/auto-transfer/internal/recipient"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// tokenReader reads token metadata from the chain.
type tokenReader interface {
	TokenDecimals(ctx context.Context, token common.Address) (int, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenPaused(ctx context.Context, token common.Address) (known, paused bool, err error)
}

func selectNetwork(p *prompter, ns config.Networks, preset string) (config.Network, error) {
	if strings.TrimSpace(preset) == "" {
		fmt.Fprintln(p.out, "Available networks:")
		for i, n := range ns {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, n.Name)
		}
	}
	n, err := ns.Select(p.ask(preset, "Select network (number): "))
	if err != nil {
		return config.Network{}, err
	}
	fmt.Fprintf(p.out, "[i] network: %s\n", n.Name)
	return n, nil
}

// selectAsset picks token ("1") or native ("2") from configuration only.
func selectAsset(p *prompter, n config.Network, preset string) (transfer.Asset, error) {
	choice := strings.ToLower(p.ask(preset, "Transaction kind (1 = token, 2 = native coin): "))
	switch choice {
	case "2", "native", "eth":
		return n.NativeAsset(), nil
	case "1", "token":
	default:
		return transfer.Asset{}, fmt.Errorf("%w: transaction kind %q", config.ErrInvalidSelection, choice)
	}
	asset, err := n.TokenAsset()
	if err != nil {
		return transfer.Asset{}, fmt.Errorf("%w: %v", config.ErrInvalidSelection, err)
	}
	return asset, nil
}

// verifyToken cross-checks a token asset against the chain. On-chain
// decimals win over the configured value when they disagree.
func verifyToken(ctx context.Context, w io.Writer, n config.Network, asset transfer.Asset, tokens tokenReader, logger *slog.Logger) transfer.Asset {
	if asset.Native || tokens == nil {
		return asset
	}
	if dec, err := tokens.TokenDecimals(ctx, *asset.Contract); err != nil {
		logger.Warn("could not read token decimals, using configured value", "decimals", asset.Decimals, "err", err)
	} else if dec != asset.Decimals {
		fmt.Fprintf(w, "[!] token reports %d decimals, configured %d; using %d\n", dec, asset.Decimals, dec)
		asset.Decimals = dec
	}
	if n.Symbol == "" {
		if sym, err := tokens.TokenSymbol(ctx, *asset.Contract); err == nil && sym != "" {
			asset.Symbol = sym
		}
	}
	if known, paused, err := tokens.TokenPaused(ctx, *asset.Contract); err == nil && known && paused {
		fmt.Fprintln(w, "[!] token reports it is paused; transfers will likely fail")
	}
	return asset
}

func selectRecipient(p *prompter, preset string, fixed common.Address, logger *slog.Logger) recipient.Recipient {
	if strings.TrimSpace(preset) == "" {
		fmt.Fprintln(p.out, "Recipient:")
		fmt.Fprintln(p.out, "  1: fixed address", fixed.Hex())
		fmt.Fprintln(p.out, "  2: random address")
	}
	r := recipient.Resolve(p.ask(preset, "Choose recipient (1/2, Enter = fixed): "), fixed, logger)
	fmt.Fprintf(p.out, "[i] recipient (%s): %s\n", r.Kind, r.Display())
	return r
}

// goalInput is the operator's amount text, kept so it can be rescaled
// when the chain reports different token decimals.
type goalInput struct {
	chunk  string
	target string
}

func (in goalInput) goal(a transfer.Asset) (*transfer.Goal, error) {
	chunk, err := amount.ToMinorUnits(in.chunk, a.Decimals)
	if err != nil {
		return nil, fmt.Errorf("amount per transfer: %w", err)
	}
	target, err := amount.ToMinorUnits(in.target, a.Decimals)
	if err != nil {
		return nil, fmt.Errorf("total amount: %w", err)
	}
	return transfer.NewGoal(target, chunk)
}

// readGoal asks for the per-transfer chunk and the overall target.
func readGoal(p *prompter, a transfer.Asset, chunkPreset, targetPreset string) (goalInput, *transfer.Goal, error) {
	var in goalInput
	in.chunk = p.ask(chunkPreset, fmt.Sprintf("Amount per transfer (%s): ", a.Symbol))
	if _, err := amount.ToMinorUnits(in.chunk, a.Decimals); err != nil {
		return in, nil, fmt.Errorf("amount per transfer: %w", err)
	}
	in.target = p.ask(targetPreset, fmt.Sprintf("Total amount to transfer (%s): ", a.Symbol))
	g, err := in.goal(a)
	return in, g, err
}
