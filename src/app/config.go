package app

import (
	"time"

	"github.com/onemorebsmith/soroban-vault/src/gateway"
	"github.com/onemorebsmith/soroban-vault/src/model"
)

const (
	BackendRPC  = "rpc"
	BackendMock = "mock"
)

type ContractsConfig struct {
	Savings        string `yaml:"savings"`
	DefiYield      string `yaml:"defi_yield"`
	InflationHedge string `yaml:"inflation_hedge"`
	Oracle         string `yaml:"oracle"`
}

type Config struct {
	HorizonURL        string `yaml:"horizon_url"`
	RPCURL            string `yaml:"rpc_url"`
	NetworkPassphrase string `yaml:"network_passphrase"`
	Backend           string `yaml:"backend"` // rpc | mock

	DemoMode          bool           `yaml:"demo_mode"`
	PlaceholderPrefix string         `yaml:"placeholder_prefix"`
	DemoReads         map[string]any `yaml:"demo_reads"`

	Contracts        ContractsConfig `yaml:"contracts"`
	PollInterval     time.Duration   `yaml:"poll_interval"`
	PollAttempts     int             `yaml:"poll_attempts"`
	TxTimeoutSeconds int64           `yaml:"tx_timeout_seconds"`

	Keystore         string `yaml:"keystore"`
	KeystorePassword string `yaml:"keystore_password"`
	PermissionFile   string `yaml:"permission_file"`
	AutoApprove      bool   `yaml:"auto_approve"`

	PromPort          string `yaml:"prom_port"`
	HealthCheckPort   string `yaml:"health_check_port"`
	PostgresConfig    string `yaml:"postgres"`
	RedisConfig       string `yaml:"redis"`
	ActivityRetention int    `yaml:"activity_retention"`
	LogFile           string `yaml:"log_file"`
	LogLevel          string `yaml:"log_level"`
}

func (c Config) Registry() model.ContractRegistry {
	return model.NewContractRegistry(map[model.ContractName]string{
		model.ContractSavings:        c.Contracts.Savings,
		model.ContractDefiYield:      c.Contracts.DefiYield,
		model.ContractInflationHedge: c.Contracts.InflationHedge,
		model.ContractOracle:         c.Contracts.Oracle,
	})
}

func (c Config) GatewayConfig() gateway.Config {
	return gateway.Config{
		NetworkPassphrase: c.NetworkPassphrase,
		PollInterval:      c.PollInterval,
		PollAttempts:      c.PollAttempts,
		TxTimeoutSeconds:  c.TxTimeoutSeconds,
		DemoMode:          c.DemoMode,
		PlaceholderPrefix: c.PlaceholderPrefix,
		DemoReads:         c.DemoReads,
	}
}
