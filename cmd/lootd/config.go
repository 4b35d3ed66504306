package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultHome          = ".lootd"
	defaultABCIAddr      = "tcp://127.0.0.1:26658"
	defaultABCITransport = "socket"
	defaultHTTPAddr      = "127.0.0.1:8090"
	defaultLogLevel      = "info"

	defaultNumPicks            = 5
	defaultMaxBallValue        = 69
	defaultGamePeriod          = 7 * 24 * 3600
	defaultTicketPrice         = 2_00000000
	defaultCommunityFeeBps     = 500
	defaultSeedJackpotDelay    = 4 * 3600
	defaultSeedJackpotMinValue = 10000000
	defaultOracleCallbackGas   = 500_000
)

// config is lootd's full set of CLI/config-file options, parsed with
// jessevdk/go-flags the way the pack's decred-lineage binaries parse
// theirs: short/long/description struct tags, a default populated before
// parsing so an unset flag still has a sane value.
type config struct {
	Home          string `short:"b" long:"home" description:"Directory to store chain state under (state lives at <home>/app)"`
	ABCIAddr      string `long:"abciaddr" description:"ABCI listen address"`
	ABCITransport string `long:"abcitransport" description:"ABCI transport (socket|grpc)"`
	HTTPAddr      string `long:"httpaddr" description:"Address for the read-only HTTP query mirror and websocket feed"`
	LogLevel      string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`
	AuditDSN      string `long:"auditdsn" description:"Postgres DSN for the optional audit sink; leave empty to disable"`

	// Genesis configuration, consumed by InitChain on first run only; a
	// node rejoining a chain with an existing snapshot ignores these.
	NumPicks            uint8  `long:"numpicks" description:"Picks per ticket"`
	MaxBallValue        uint8  `long:"maxballvalue" description:"Highest ball value, inclusive"`
	GamePeriod          int64  `long:"gameperiod" description:"Seconds a round stays open before it can be drawn"`
	TicketPrice         uint64 `long:"ticketprice" description:"Price of one ticket, in the value ledger's base unit"`
	CommunityFeeBps     uint16 `long:"communityfeebps" description:"Community fee, in basis points of each ticket sale"`
	SeedJackpotDelay    int64  `long:"seedjackpotdelay" description:"Minimum seconds between two accepted seedJackpot calls"`
	SeedJackpotMinValue uint64 `long:"seedjackpotminvalue" description:"Minimum value accepted by seedJackpot"`
	Owner               string `long:"owner" description:"Owner account id, genesis only"`
	Oracle              string `long:"oracle" description:"Oracle account id, genesis only"`
	OracleCallbackGas   uint64 `long:"oraclecallbackgas" description:"Gas budget requested alongside each randomness request"`
}

func defaultConfig() config {
	return config{
		Home:                defaultHome,
		ABCIAddr:            defaultABCIAddr,
		ABCITransport:       defaultABCITransport,
		HTTPAddr:            defaultHTTPAddr,
		LogLevel:            defaultLogLevel,
		NumPicks:            defaultNumPicks,
		MaxBallValue:        defaultMaxBallValue,
		GamePeriod:          defaultGamePeriod,
		TicketPrice:         defaultTicketPrice,
		CommunityFeeBps:     defaultCommunityFeeBps,
		SeedJackpotDelay:    defaultSeedJackpotDelay,
		SeedJackpotMinValue: defaultSeedJackpotMinValue,
		OracleCallbackGas:   defaultOracleCallbackGas,
	}
}

// loadConfig parses CLI flags over defaultConfig's defaults. Unlike the
// teacher pack's dcrstakepool, lootd has no ini config file: every
// option here is either a devnet convenience or a one-shot genesis value,
// neither of which benefits from a second configuration surface.
func loadConfig() (*config, error) {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return &cfg, nil
}
