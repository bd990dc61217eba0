package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitfsorg/tokendrop/config"
	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/network"
	"github.com/bitfsorg/tokendrop/wallet"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// LedgerFileName is the payout ledger inside the data directory.
const LedgerFileName = "ledger.db"

var errNoWallet = errors.New("no payer wallet loaded (run \"tokendrop init --create-wallet\" and set TOKENDROP_WALLET_PASSWORD)")

// runtime is the per-invocation environment shared by commands.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	network *wallet.NetworkConfig
}

func configPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.ConfigPath(config.DefaultDataDir())
}

// loadRuntime reads the config file, falling back to defaults plus
// environment when the default file does not exist.
func loadRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(configPath(c))
	if errors.Is(err, config.ErrConfigNotFound) && !c.IsSet("config") {
		cfg, err = config.LoadEnv()
	}
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	net, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, network: net}, nil
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}

// rpcConfig resolves the node endpoint. An empty rpc.url falls back to
// TOKENDROP_RPC_URL and then to the network preset.
func (rt *runtime) rpcConfig() (*network.RPCConfig, error) {
	env := map[string]string{
		"TOKENDROP_RPC_URL":      os.Getenv("TOKENDROP_RPC_URL"),
		"TOKENDROP_RPC_USER":     os.Getenv("TOKENDROP_RPC_USER"),
		"TOKENDROP_RPC_PASSWORD": os.Getenv("TOKENDROP_RPC_PASSWORD"),
	}
	return network.ResolveConfig(&network.RPCConfig{
		URL:            rt.cfg.RPC.URL,
		User:           rt.cfg.RPC.User,
		Password:       rt.cfg.RPC.Password,
		AmountDecimals: rt.cfg.Payout.FeeDecimals,
	}, env, rt.cfg.Network)
}

func (rt *runtime) indexer() (*network.RPCClient, error) {
	rpcCfg, err := rt.rpcConfig()
	if err != nil {
		return nil, err
	}
	return network.NewRPCClient(*rpcCfg), nil
}

// tokenSource returns the holder source and a func releasing it. A zero
// cache TTL bypasses the cache.
func (rt *runtime) tokenSource(idx network.TokenIndexer) (network.UTXOSource, func()) {
	src := network.NewTokenSource(idx)
	if rt.cfg.Indexer.CacheTTL <= 0 {
		return src, func() {}
	}
	cached := network.NewCachedSource(src, rt.cfg.Indexer.CacheTTL, rt.logger)
	return cached, cached.Stop
}

func (rt *runtime) walletPath() string {
	return filepath.Join(rt.cfg.DataDir, wallet.WalletFileName)
}

func (rt *runtime) ledgerPath() string {
	return filepath.Join(rt.cfg.DataDir, LedgerFileName)
}

// openPayer decrypts the wallet and returns its payer key. It returns
// errNoWallet when no password is given or the wallet file is missing.
func (rt *runtime) openPayer(password string) (*wallet.KeyPair, error) {
	if password == "" {
		return nil, errNoWallet
	}
	w, err := wallet.OpenWalletFile(rt.walletPath(), password, rt.network)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		return nil, fmt.Errorf("%w: %w", errNoWallet, err)
	}
	if err != nil {
		return nil, err
	}
	return w.PayerKey()
}

// buildPolicy merges command flags over the configured defaults.
func buildPolicy(c *cli.Context, cfg config.DistributionConfig, self string) (distribution.Policy, error) {
	if c.IsSet("total") && c.Bool("max") {
		return distribution.Policy{}, errors.New("--total and --max are mutually exclusive")
	}

	modeStr := cfg.Mode
	if c.IsSet("mode") {
		modeStr = c.String("mode")
	}
	mode, err := distribution.ParseMode(modeStr)
	if err != nil {
		return distribution.Policy{}, err
	}

	minStr := cfg.MinBalance
	if c.IsSet("min-balance") {
		minStr = c.String("min-balance")
	}
	minBal, err := decimal.NewFromString(minStr)
	if err != nil {
		return distribution.Policy{}, fmt.Errorf("invalid --min-balance %q: %w", minStr, err)
	}

	total := decimal.Zero
	if c.IsSet("total") {
		if total, err = decimal.NewFromString(c.String("total")); err != nil {
			return distribution.Policy{}, fmt.Errorf("invalid --total %q: %w", c.String("total"), err)
		}
	}

	exclude := cfg.ExcludeSelf
	if c.IsSet("exclude-self") {
		exclude = c.Bool("exclude-self")
	}

	return distribution.Policy{
		Mode:        mode,
		Total:       total,
		MinBalance:  minBal,
		ExcludeSelf: exclude,
		Self:        self,
	}, nil
}

// promptPassword reads a password from an interactive stdin without echo.
// It returns "" when stdin is not a terminal.
func promptPassword(w io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(w, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
