package config

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// ErrInvalidSelection is returned for menu choices that match nothing.
var ErrInvalidSelection = errors.New("invalid selection")

const nativeDecimals = 18

// Network is one entry of the networks file.
type Network struct {
	Key                  string `mapstructure:"-"`
	Name                 string `mapstructure:"name"`
	RPCURL               string `mapstructure:"rpcUrl"`
	Explorer             string `mapstructure:"explorer"`
	ChainID              int64  `mapstructure:"chainId"`
	TokenContractAddress string `mapstructure:"tokenContractAddress"`
	Decimals             int    `mapstructure:"decimals"`
	Symbol               string `mapstructure:"symbol"`
	NativeSymbol         string `mapstructure:"nativeSymbol"`
}

// Networks is ordered by key so menu numbers are stable between runs.
type Networks []Network

// LoadNetworks reads a JSON/YAML/TOML file of the form
//
//	{"networks": {"sepolia": {"name": "...", "rpcUrl": "...", ...}}}
//
// Every value may be overridden from the environment, e.g.
// NETWORKS_SEPOLIA_RPCURL.
func LoadNetworks(path string) (Networks, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read networks file %s: %w", path, err)
	}
	var raw struct {
		Networks map[string]Network `mapstructure:"networks"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode networks file %s: %w", path, err)
	}
	if len(raw.Networks) == 0 {
		return nil, fmt.Errorf("networks file %s: no networks defined", path)
	}
	out := make(Networks, 0, len(raw.Networks))
	var errs []error
	for key, n := range raw.Networks {
		n.Key = key
		if n.Name == "" {
			n.Name = key
		}
		if err := n.Validate(); err != nil {
			errs = append(errs, err)
		}
		out = append(out, n)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (n Network) Validate() error {
	var errs []error
	if strings.TrimSpace(n.RPCURL) == "" {
		errs = append(errs, fmt.Errorf("network %s: rpcUrl is required", n.Key))
	}
	if n.TokenContractAddress != "" && !common.IsHexAddress(n.TokenContractAddress) {
		errs = append(errs, fmt.Errorf("network %s: tokenContractAddress %q is not an address", n.Key, n.TokenContractAddress))
	}
	if n.Decimals < 0 || n.Decimals > 77 {
		errs = append(errs, fmt.Errorf("network %s: decimals %d out of range", n.Key, n.Decimals))
	}
	if n.ChainID < 0 {
		errs = append(errs, fmt.Errorf("network %s: chainId must not be negative", n.Key))
	}
	return errors.Join(errs...)
}

// Select resolves a 1-based menu number or a network key.
func (ns Networks) Select(choice string) (Network, error) {
	choice = strings.TrimSpace(choice)
	if i, err := strconv.Atoi(choice); err == nil {
		if i >= 1 && i <= len(ns) {
			return ns[i-1], nil
		}
		return Network{}, fmt.Errorf("%w: network %q", ErrInvalidSelection, choice)
	}
	for _, n := range ns {
		if strings.EqualFold(n.Key, choice) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: network %q", ErrInvalidSelection, choice)
}

func (n Network) ChainIDBig() *big.Int {
	if n.ChainID <= 0 {
		return nil
	}
	return big.NewInt(n.ChainID)
}

// HasToken reports whether token transfers can be offered on this network.
func (n Network) HasToken() bool { return n.TokenContractAddress != "" }

// NativeAsset is the chain's coin; always 18 decimals.
func (n Network) NativeAsset() transfer.Asset {
	sym := n.NativeSymbol
	if sym == "" {
		sym = "ETH"
	}
	return transfer.NativeAsset(sym, nativeDecimals)
}

// TokenAsset is the configured ERC-20 token.
func (n Network) TokenAsset() (transfer.Asset, error) {
	if !n.HasToken() {
		return transfer.Asset{}, fmt.Errorf("network %s has no tokenContractAddress", n.Key)
	}
	sym := n.Symbol
	if sym == "" {
		sym = "TOKEN"
	}
	return transfer.TokenAsset(sym, n.Decimals, common.HexToAddress(n.TokenContractAddress)), nil
}

// TxURL renders "<explorer>tx/<hash>"; empty explorer yields the bare hash.
func (n Network) TxURL(hash common.Hash) string {
	if n.Explorer == "" {
		return hash.Hex()
	}
	base := n.Explorer
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "tx/" + hash.Hex()
}
