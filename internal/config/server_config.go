package config

import (
	"errors"
	"io/fs"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
)

// StoreDriverMemory keeps key records in process memory only.
const StoreDriverMemory = "memory"

type VaultServer struct {
	EncryptionSecret string        `json:"-"`
	KMSKeyID         string        `json:"kmsKeyId"`
	AWSRegion        string        `json:"awsRegion"`
	CacheTTL         time.Duration `json:"cacheTtl"`
}

type StoreServer struct {
	Driver string `json:"driver"`
	DSN    string `json:"-"`
}

type ChainServer struct {
	Network             string        `json:"network"`
	RPCURLs             string        `json:"-"` // comma separated
	InfuraAPIKey        string        `json:"-"`
	ReceiptPollInterval time.Duration `json:"receiptPollInterval"`
	BalanceCacheTTL     time.Duration `json:"balanceCacheTtl"`
}

type SwapServer struct {
	BaseURL       string        `json:"baseUrl"`
	APIKey        string        `json:"-"`
	QuoteValidity time.Duration `json:"quoteValidity"`
	SlippageBps   int           `json:"slippageBps"`
}

type MetricsServer struct {
	// ListenAddress exposes /metrics while a command runs; empty disables the listener.
	ListenAddress string `json:"listenAddress"`
}

type LoggerServer struct {
	Level              zerolog.Level `json:"level"`
	PrettyPrintConsole bool          `json:"prettyPrintConsole"`
	LogCaller          bool          `json:"logCaller"`
}

// Server is the complete runtime configuration.
type Server struct {
	Vault   VaultServer
	Store   StoreServer
	Chain   ChainServer
	Swap    SwapServer
	Metrics MetricsServer
	Logger  LoggerServer
}

// LoggerConfig converts the logger section for util.ConfigureLogger.
func (s Server) LoggerConfig() util.LoggerConfig {
	return util.LoggerConfig{
		Level:              s.Logger.Level,
		PrettyPrintConsole: s.Logger.PrettyPrintConsole,
		LogCaller:          s.Logger.LogCaller,
	}
}

var loadDotEnv sync.Once

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and an optional .env file in the working directory. Unset keys keep their defaults.
func DefaultServiceConfigFromEnv() Server {
	loadDotEnv.Do(func() {
		// Real environment variables win over .env entries.
		if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("Failed to load .env file")
		}
	})

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("VAULT_CACHE_TTL", 60*time.Second)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("STORE_DSN", "file:crypto-vault.db?_pragma=busy_timeout(5000)")
	v.SetDefault("NETWORK", "mainnet")
	v.SetDefault("RECEIPT_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("BALANCE_CACHE_TTL", 2*time.Minute)
	v.SetDefault("ZERO_X_API_URL", "https://api.0x.org")
	v.SetDefault("SWAP_QUOTE_VALIDITY", 5*time.Minute)
	v.SetDefault("SWAP_SLIPPAGE_BPS", 100)
	v.SetDefault("LOG_LEVEL", zerolog.InfoLevel.String())
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("LOG_CALLER", false)

	return v
}

// FromViper reads a Server from v. Exported for tests that set values directly.
func FromViper(v *viper.Viper) Server {
	level, err := zerolog.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		log.Warn().Err(err).Str("level", v.GetString("LOG_LEVEL")).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}

	return Server{
		Vault: VaultServer{
			EncryptionSecret: v.GetString("ENCRYPTION_SECRET"),
			KMSKeyID:         v.GetString("KMS_KEY_ID"),
			AWSRegion:        v.GetString("AWS_REGION"),
			CacheTTL:         v.GetDuration("VAULT_CACHE_TTL"),
		},
		Store: StoreServer{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
			DSN:    v.GetString("STORE_DSN"),
		},
		Chain: ChainServer{
			Network:             strings.ToLower(v.GetString("NETWORK")),
			RPCURLs:             v.GetString("RPC_URLS"),
			InfuraAPIKey:        v.GetString("INFURA_API_KEY"),
			ReceiptPollInterval: v.GetDuration("RECEIPT_POLL_INTERVAL"),
			BalanceCacheTTL:     v.GetDuration("BALANCE_CACHE_TTL"),
		},
		Swap: SwapServer{
			BaseURL:       v.GetString("ZERO_X_API_URL"),
			APIKey:        v.GetString("ZERO_X_API_KEY"),
			QuoteValidity: v.GetDuration("SWAP_QUOTE_VALIDITY"),
			SlippageBps:   v.GetInt("SWAP_SLIPPAGE_BPS"),
		},
		Metrics: MetricsServer{
			ListenAddress: v.GetString("METRICS_LISTEN_ADDRESS"),
		},
		Logger: LoggerServer{
			Level:              level,
			PrettyPrintConsole: v.GetBool("LOG_PRETTY"),
			LogCaller:          v.GetBool("LOG_CALLER"),
		},
	}
}

// ModuleName is reported by the version flag and the env command.
var ModuleName = "crypto-vault"

// Set at build time through -ldflags "-X ...".
var (
	Commit    = "< 40 chars git commit hash via ldflags >"
	BuildDate = "< YYYY-MM-DDTHH:MM:SS+ZZ:ZZ via ldflags >"
)

// GetFormattedBuildArgs returns a one line summary of the build.
func GetFormattedBuildArgs() string {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}

	return ModuleName + " @ " + version + " " + Commit + " (" + BuildDate + ")"
}

