package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// DefaultFixedRecipient is used when FIXED_RECIPIENT is not set.
const DefaultFixedRecipient = "0xf64d3CeFdAe63560C8b1E1D0f134a54988F5260E"

// Settings keeps all configuration options read from the environment.
type Settings struct {
	PrivateKeyHex  string
	NetworksFile   string
	RPCURL         string // overrides the selected network's rpcUrl when set
	FixedRecipient string
	PollInterval   time.Duration
	MaxAttempts    int
	RPCRateLimit   float64
	TipGwei        int64
	BasefeeMul     int64
	WaitReceipt    bool
	LogLevel       string
	MetricsAddr    string
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getFloat := func(keys []string, def float64) float64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" {
			return def
		}
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}

	st := Settings{}
	st.PrivateKeyHex = get([]string{"private_key", "PRIVATE_KEY"}, "")
	st.NetworksFile = get([]string{"networks_file", "NETWORKS_FILE"}, "networks.json")
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "")
	st.FixedRecipient = get([]string{"fixed_recipient", "FIXED_RECIPIENT"}, DefaultFixedRecipient)
	st.PollInterval = parseInterval(get([]string{"poll_interval", "POLL_INTERVAL"}, ""), 5*time.Second)
	st.MaxAttempts = getInt([]string{"max_attempts", "MAX_ATTEMPTS"}, transfer.DefaultMaxAttempts)
	st.RPCRateLimit = getFloat([]string{"rpc_rate_limit", "RPC_RATE_LIMIT"}, 0)
	st.TipGwei = getInt64([]string{"tip_gwei", "TIP_GWEI"}, 1)
	st.BasefeeMul = getInt64([]string{"basefee_mul", "BASEFEE_MUL"}, 2)
	st.WaitReceipt = getBool([]string{"wait_receipt", "WAIT_RECEIPT"}, false)
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "error")
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")
	return st
}

// parseInterval accepts a Go duration ("5s") or bare milliseconds ("5000").
func parseInterval(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Validate reports every problem at once.
func (s Settings) Validate() error {
	var errs []error
	if s.FixedRecipient == "" || !common.IsHexAddress(s.FixedRecipient) {
		errs = append(errs, fmt.Errorf("FIXED_RECIPIENT %q is not an address", s.FixedRecipient))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if s.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must be >= 1, got %d", s.MaxAttempts))
	}
	if s.RPCRateLimit < 0 {
		errs = append(errs, errors.New("RPC_RATE_LIMIT must not be negative"))
	}
	if s.TipGwei < 0 {
		errs = append(errs, errors.New("TIP_GWEI must not be negative"))
	}
	if s.BasefeeMul < 1 {
		errs = append(errs, fmt.Errorf("BASEFEE_MUL must be >= 1, got %d", s.BasefeeMul))
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s Settings) Recipient() common.Address { return common.HexToAddress(s.FixedRecipient) }

// ParseLevel maps LOG_LEVEL onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}
