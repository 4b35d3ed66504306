package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	abciserver "github.com/cometbft/cometbft/abci/server"
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/lootopgf/lootery-go/internal/app"
	"github.com/lootopgf/lootery-go/internal/audit"
	"github.com/lootopgf/lootery-go/internal/collaborators"
	"github.com/lootopgf/lootery-go/internal/httpapi"
	"github.com/lootopgf/lootery-go/internal/lottery"
)

var (
	appLog  = subsystemLoggers["APP"]
	httpLog = subsystemLoggers["HTTP"]
	audLog  = subsystemLoggers["AUD"]
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	setLogLevels(cfg.LogLevel)

	if err := run(cfg); err != nil {
		appLog.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	// The in-process collaborators are a devnet stand-in for the real
	// value ledger, ticket registry, and randomness oracle: spec.md's
	// Non-goals exclude reimplementing any of those for real, but lootd
	// still needs something runnable end-to-end out of the box.
	ledger := collaborators.NewLedger()
	registry := collaborators.NewRegistry()
	oracle := collaborators.NewOracle(cfg.TicketPrice / 20)
	native := collaborators.NewNativeCoin(1 << 40)

	a, err := app.New(cfg.Home, lottery.Collaborators{
		Ledger:         ledger,
		Registry:       registry,
		Oracle:         oracle,
		NativeBalance:  native.Balance,
		NativeTransfer: native.Transfer,
	})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if !a.Initialized() {
		if err := initGenesis(a, cfg); err != nil {
			return fmt.Errorf("init genesis: %w", err)
		}
		appLog.Infof("genesis initialized under %s", cfg.Home)
	}

	hub := httpapi.NewHub(httpLog)
	go hub.Run()

	var auditStore *audit.Store
	if cfg.AuditDSN != "" {
		auditStore, err = audit.Connect(context.Background(), cfg.AuditDSN, audLog)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
		if err := auditStore.InitSchema(context.Background()); err != nil {
			return fmt.Errorf("init audit schema: %w", err)
		}
		defer auditStore.Close()
		audLog.Infof("audit sink connected")
	}

	a.SetSink(func(height int64, txResults []*abci.ExecTxResult) {
		events := app.ToLotteryEvents(txResults)
		if len(events) == 0 {
			return
		}
		httpapi.BroadcastEvents(hub, events)
		if auditStore != nil {
			auditStore.RecordBlock(context.Background(), height, events)
		}
	})

	abciSrv, err := abciserver.NewServer(cfg.ABCIAddr, cfg.ABCITransport, a)
	if err != nil {
		return fmt.Errorf("build abci server: %w", err)
	}
	if err := abciSrv.Start(); err != nil {
		return fmt.Errorf("start abci server: %w", err)
	}
	defer func() { _ = abciSrv.Stop() }()
	appLog.Infof("abci server listening on %s (%s)", cfg.ABCIAddr, cfg.ABCITransport)

	httpSrv := httpapi.NewServer(a, hub, httpLog)
	go func() {
		if err := httpSrv.Router().Run(cfg.HTTPAddr); err != nil {
			httpLog.Errorf("http server stopped: %v", err)
		}
	}()
	httpLog.Infof("http query mirror listening on %s", cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	appLog.Infof("shutting down")
	return nil
}

// initGenesis drives InitChain directly from cfg's genesis fields, the
// devnet path for a node with no external CometBFT genesis handshake
// feeding app_state bytes over the ABCI socket.
func initGenesis(a *app.App, cfg *config) error {
	genesisCfg := lottery.Config{
		NumPicks:            cfg.NumPicks,
		MaxBallValue:        cfg.MaxBallValue,
		GamePeriod:          cfg.GamePeriod,
		TicketPrice:         cfg.TicketPrice,
		CommunityFeeBps:     cfg.CommunityFeeBps,
		SeedJackpotDelay:    cfg.SeedJackpotDelay,
		SeedJackpotMinValue: cfg.SeedJackpotMinValue,
		Owner:               cfg.Owner,
		Oracle:              cfg.Oracle,
		OracleCallbackGas:   cfg.OracleCallbackGas,
	}
	appStateBytes, err := json.Marshal(genesisCfg)
	if err != nil {
		return fmt.Errorf("marshal genesis config: %w", err)
	}
	_, err = a.InitChain(context.Background(), &abci.InitChainRequest{
		AppStateBytes: appStateBytes,
		Time:          time.Now(),
	})
	return err
}
