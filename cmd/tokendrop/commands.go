package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bitfsorg/tokendrop/config"
	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/engine"
	"github.com/bitfsorg/tokendrop/ledger"
	"github.com/bitfsorg/tokendrop/network"
	"github.com/bitfsorg/tokendrop/payout"
	"github.com/bitfsorg/tokendrop/wallet"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func tokenArg(c *cli.Context) (string, error) {
	tokenID := c.Args().First()
	if tokenID == "" {
		return "", errors.New("missing <tokenID> argument")
	}
	return tokenID, nil
}

// session is a scanned engine ready to calculate or execute.
type session struct {
	rt       *runtime
	engine   *engine.Engine
	info     *network.TokenInfo
	executor *payout.Executor // nil when no wallet is loaded
	store    *ledger.Store    // nil unless opened with a ledger
	release  func()
}

func (s *session) close() {
	s.release()
	if s.store != nil {
		_ = s.store.Close()
	}
	s.rt.close()
}

// openSession loads the configuration, resolves the token, scans its
// holders and leaves the engine with a plan for the flag policy. Executing
// sessions require the payer wallet and record to the ledger; planning
// sessions use the wallet only when it can be opened.
func openSession(c *cli.Context, executing bool) (*session, error) {
	tokenID, err := tokenArg(c)
	if err != nil {
		return nil, err
	}
	rt, err := loadRuntime(c)
	if err != nil {
		return nil, err
	}
	s := &session{rt: rt, release: func() {}}
	ok := false
	defer func() {
		if !ok {
			s.close()
		}
	}()

	idx, err := rt.indexer()
	if err != nil {
		return nil, err
	}
	s.info, err = idx.GetTokenInfo(c.Context, tokenID)
	if err != nil {
		return nil, err
	}

	password := c.String("password")
	if password == "" && executing {
		if password, err = promptPassword(c.App.ErrWriter, "Wallet password: "); err != nil {
			return nil, err
		}
	}

	var self string
	payer, err := rt.openPayer(password)
	switch {
	case err == nil:
		s.executor, err = payout.NewExecutor(idx, payer,
			payout.WithNetwork(rt.network),
			payout.WithFeeDecimals(rt.cfg.Payout.FeeDecimals),
			payout.WithFeeRate(rt.cfg.Payout.FeeRate),
			payout.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		self = s.executor.PayerAddress()
	case errors.Is(err, errNoWallet) && !executing:
		rt.logger.Debug("planning without a payer wallet", zap.String("op", "main.openSession"), zap.Error(err))
		// Without a payer there is no identity to exclude. An explicit
		// --exclude-self still fails policy validation.
		if rt.cfg.Distribution.ExcludeSelf && !c.IsSet("exclude-self") {
			rt.cfg.Distribution.ExcludeSelf = false
			rt.logger.Debug("self exclusion disabled without a payer wallet", zap.String("op", "main.openSession"))
		}
	default:
		return nil, err
	}

	policy, err := buildPolicy(c, rt.cfg.Distribution, self)
	if err != nil {
		return nil, err
	}

	src, release := rt.tokenSource(idx)
	s.release = release

	opts := []engine.Option{
		engine.WithLogger(rt.logger),
		engine.WithMainnet(rt.network.IsMainNet()),
		engine.WithPrecision(rt.cfg.Distribution.Precision),
		engine.WithPolicy(policy),
	}
	var exec engine.PayoutExecutor = engine.PayoutExecutorFunc(noWalletExecutor)
	if s.executor != nil {
		exec = s.executor
		opts = append(opts, engine.WithBalanceSource(s.executor))
	}
	if executing {
		if s.store, err = ledger.Open(rt.ledgerPath()); err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithLedger(s.store))
	}
	s.engine, err = engine.New(src, exec, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.engine.SetToken(tokenID, s.info.Decimals); err != nil {
		return nil, err
	}

	// With --max the gross balance lets the scan plan; once the eligible
	// holders are known the total is lowered to what is left after the fee.
	useMax := c.Bool("max")
	if useMax {
		if _, err := s.engine.UseMaxTotal(c.Context); err != nil {
			if errors.Is(err, engine.ErrNoBalanceSource) {
				return nil, fmt.Errorf("--max: %w", errNoWallet)
			}
			return nil, err
		}
	}
	if err := s.engine.Scan(c.Context); err != nil {
		return nil, err
	}
	if useMax {
		if _, err := s.engine.UseMaxTotal(c.Context); err != nil {
			return nil, fmt.Errorf("--max: %w", err)
		}
		if _, err := s.engine.Calculate(); err != nil {
			return nil, err
		}
	}
	ok = true
	return s, nil
}

func noWalletExecutor(_ context.Context, _ []distribution.Payout) (string, error) {
	return "", errNoWallet
}

func planAction(c *cli.Context) error {
	s, err := openSession(c, false)
	if err != nil {
		return err
	}
	defer s.close()

	st := s.engine.Status()
	printPlan(c.App.Writer, s.info, st.Snapshot, st.Plan)
	if s.executor != nil {
		bal, err := s.executor.FeeBalance(c.Context)
		if err != nil {
			return err
		}
		maxTotal, err := s.engine.MaxTotal(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Payer %s balance: %s, max total after fees: %s\n",
			s.executor.PayerAddress(), bal, maxTotal)
	}
	return nil
}

func executeAction(c *cli.Context) error {
	s, err := openSession(c, true)
	if err != nil {
		return err
	}
	defer s.close()

	st := s.engine.Status()
	printPlan(c.App.Writer, s.info, st.Snapshot, st.Plan)
	if !c.Bool("yes") {
		fmt.Fprintln(c.App.Writer, "Dry run: re-run with --yes to broadcast.")
		return nil
	}

	txid, err := s.engine.Execute(c.Context)
	if txid != "" {
		fmt.Fprintf(c.App.Writer, "Payout broadcast: %s\n", txid)
	}
	if errors.Is(err, engine.ErrLedgerWrite) {
		s.rt.logger.Warn("payout broadcast but not recorded",
			zap.String("op", "main.executeAction"),
			zap.String("txid", txid),
			zap.Error(err))
	}
	return err
}

func historyAction(c *cli.Context) error {
	tokenID, err := tokenArg(c)
	if err != nil {
		return err
	}
	rt, err := loadRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	store, err := ledger.Open(rt.ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListByToken(tokenID)
	if err != nil {
		return err
	}
	printHistory(c.App.Writer, tokenID, records)
	return nil
}

func initAction(c *cli.Context) error {
	path := configPath(c)
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("configuration %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)

	if !c.Bool("create-wallet") {
		return nil
	}
	password := c.String("password")
	if password == "" {
		if password, err = promptPassword(c.App.ErrWriter, "New wallet password: "); err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("--create-wallet needs --password or TOKENDROP_WALLET_PASSWORD")
	}
	bits := wallet.Mnemonic12Words
	if c.Bool("words24") {
		bits = wallet.Mnemonic24Words
	}
	mnemonic, err := wallet.GenerateMnemonic(bits)
	if err != nil {
		return err
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	net, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return err
	}
	w, err := wallet.NewWallet(seed, net)
	if err != nil {
		return err
	}
	payer, err := w.PayerKey()
	if err != nil {
		return err
	}
	addr, err := payer.Address(net)
	if err != nil {
		return err
	}

	walletPath := filepath.Join(cfg.DataDir, wallet.WalletFileName)
	if err := wallet.CreateWalletFile(walletPath, seed, password); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", walletPath)
	fmt.Fprintf(c.App.Writer, "Payer address: %s\n", addr)
	fmt.Fprintf(c.App.Writer, "Recovery phrase (write it down, it is not stored in clear):\n  %s\n", mnemonic)
	return nil
}
