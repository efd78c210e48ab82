package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"

	"github.com/onemorebsmith/soroban-vault/src/app"
	"github.com/onemorebsmith/soroban-vault/src/common"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/wallet"
	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const usage = `usage: vault [flags] <command> [args]

wallet:
  keygen [import]            create the encrypted keystore with a random key, or import a secret
                             from VAULT_IMPORT_SECRET or the first line of stdin
  probe                      show the session state without prompting
  connect                    ask the wallet for access
  disconnect                 forget the identity for this process
  balance                    native balance of the connected account

savings:
  savings-deposit <amount>   savings-withdraw <amount>   savings-lock <seconds>
  savings-balance            savings-lock-status

yield:
  yield-deposit <amount>     yield-harvest               yield-stake

hedge:
  hedge-deposit <amount>     hedge-withdraw <amount>     hedge-rebalance [country]
  hedge-allocation

other:
  inflation [country]        contracts                   activity [limit]
  serve                      run metrics and health check until interrupted
`

func main() {
	pwd, _ := os.Getwd()
	fullPath := path.Join(pwd, "config.yaml")
	log.Printf("loading config @ `%s`", fullPath)
	rawCfg, err := ioutil.ReadFile(fullPath)
	if err != nil {
		log.Printf("config file not found: %s", err)
		os.Exit(1)
	}
	cfg := app.Config{}
	if err := yaml.Unmarshal(rawCfg, &cfg); err != nil {
		log.Printf("failed parsing config file: %s", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.HorizonURL, "horizon", cfg.HorizonURL, "horizon endpoint, default `https://horizon-testnet.stellar.org`")
	flag.StringVar(&cfg.RPCURL, "rpc", cfg.RPCURL, "soroban rpc endpoint, default `https://soroban-testnet.stellar.org`")
	flag.StringVar(&cfg.NetworkPassphrase, "network", cfg.NetworkPassphrase, "network passphrase, defaults to testnet")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "`rpc` or `mock`")
	flag.BoolVar(&cfg.DemoMode, "demo", cfg.DemoMode, "answer placeholder contracts locally")
	flag.StringVar(&cfg.PlaceholderPrefix, "placeholder", cfg.PlaceholderPrefix, "placeholder contract prefix, default `CMOCK`")
	flag.StringVar(&cfg.Contracts.Savings, "savings", cfg.Contracts.Savings, "savings contract id")
	flag.StringVar(&cfg.Contracts.DefiYield, "yield", cfg.Contracts.DefiYield, "defi yield contract id")
	flag.StringVar(&cfg.Contracts.InflationHedge, "hedge", cfg.Contracts.InflationHedge, "inflation hedge contract id")
	flag.StringVar(&cfg.Contracts.Oracle, "oracle", cfg.Contracts.Oracle, "oracle contract id")
	flag.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "wait between confirmation queries, default `2s`")
	flag.IntVar(&cfg.PollAttempts, "attempts", cfg.PollAttempts, "confirmation queries before giving up, default `10`")
	flag.Int64Var(&cfg.TxTimeoutSeconds, "txtimeout", cfg.TxTimeoutSeconds, "transaction validity window in seconds, default `30`")
	flag.StringVar(&cfg.Keystore, "keystore", cfg.Keystore, "path of the encrypted keystore")
	flag.StringVar(&cfg.PermissionFile, "grant", cfg.PermissionFile, "path of the standing permission grant")
	flag.BoolVar(&cfg.AutoApprove, "yes", cfg.AutoApprove, "approve every connection and signature without asking")
	flag.StringVar(&cfg.PromPort, "prom", cfg.PromPort, "address to serve prom stats, default `:2112`")
	flag.StringVar(&cfg.HealthCheckPort, "hcp", cfg.HealthCheckPort, `(rarely used) if defined will expose a health check on /readyz, default ""`)
	flag.StringVar(&cfg.PostgresConfig, "pg", cfg.PostgresConfig, "config string for the postgres connection")
	flag.StringVar(&cfg.RedisConfig, "redis", cfg.RedisConfig, "address of redis, empty disables it")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "also write json logs to this file")
	flag.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level, default `info`")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if cfg.KeystorePassword == "" {
		cfg.KeystorePassword = os.Getenv("VAULT_KEYSTORE_PASSWORD")
	}

	log.Println("----------------------------------")
	log.Printf("initializing vault")
	log.Printf("\tbackend:       %s", cfg.Backend)
	log.Printf("\thorizon:       %s", cfg.HorizonURL)
	log.Printf("\trpc:           %s", cfg.RPCURL)
	log.Printf("\tdemo:          %t", cfg.DemoMode)
	log.Printf("\tkeystore:      %s", cfg.Keystore)
	log.Printf("\tprom:          %s", cfg.PromPort)
	log.Printf("\thealth check:  %s", cfg.HealthCheckPort)
	log.Printf("\tpostgres:      %t", cfg.PostgresConfig != "")
	log.Printf("\tredis:         %s", cfg.RedisConfig)
	log.Println("----------------------------------")

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, closeLog, err := common.ConfigureZap(common.ParseLevel(cfg.LogLevel), cfg.LogFile)
	if err != nil {
		log.Printf("failed configuring logging: %s", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Error("command failed", zap.String("kind", string(model.KindOf(err))), zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg app.Config, logger *zap.Logger, command string, args []string) error {
	if command == "keygen" {
		return keygen(cfg, args)
	}

	var approver wallet.Approver = wallet.NewTerminalApprover(os.Stdin, os.Stdout)
	if cfg.AutoApprove {
		approver = wallet.AutoApprover{}
	}
	a, err := app.New(ctx, cfg, approver, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.StartServices(ctx)
	a.Session.Probe(ctx)

	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch command {
	case "probe":
		fmt.Println(a.Session.State())
	case "connect":
		id, err := a.Session.RequestConnection(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("connected as %s (%s)\n", id.DisplayName, id.Address)
	case "disconnect":
		a.Session.Disconnect()
		fmt.Println("disconnected. the wallet still remembers this client, remove", cfg.PermissionFile, "to revoke access")
	case "balance":
		snap, err := a.Balance(ctx)
		if err != nil {
			return err
		}
		if !snap.Found {
			fmt.Println("account not found on the network, fund it first")
			return nil
		}
		fmt.Printf("%s XLM\n", snap.NativeBalance)
	case "savings-deposit":
		return printResult(a.Contracts.DepositToSavings(ctx, arg(0)))
	case "savings-withdraw":
		return printResult(a.Contracts.WithdrawFromSavings(ctx, arg(0)))
	case "savings-lock":
		seconds, err := strconv.ParseUint(arg(0), 10, 64)
		if err != nil {
			return model.Classify(model.ErrInvalidArgument, err)
		}
		return printResult(a.Contracts.LockSavings(ctx, seconds))
	case "savings-balance":
		bal, found, err := a.Contracts.GetSavingsBalance(ctx)
		if err != nil || !found {
			return printValue(nil, err)
		}
		return printValue(bal, nil)
	case "savings-lock-status":
		return printValue(a.Contracts.GetLockStatus(ctx))
	case "yield-deposit":
		return printResult(a.Contracts.DepositForYield(ctx, arg(0)))
	case "yield-harvest":
		return printResult(a.Contracts.HarvestYield(ctx))
	case "yield-stake":
		stake, err := a.Contracts.GetStake(ctx)
		if err != nil || stake == nil {
			return printValue(nil, err)
		}
		fmt.Printf("%s since %d\n", stake.Amount, stake.Since)
	case "hedge-deposit":
		return printResult(a.Contracts.DepositToHedge(ctx, arg(0)))
	case "hedge-withdraw":
		return printResult(a.Contracts.WithdrawFromHedge(ctx, arg(0)))
	case "hedge-rebalance":
		return printResult(a.Contracts.RebalanceHedge(ctx, strings.ToUpper(arg(0))))
	case "hedge-allocation":
		return printValue(a.Contracts.GetAllocation(ctx))
	case "inflation":
		return printValue(a.Contracts.GetInflationData(ctx, strings.ToUpper(arg(0))))
	case "contracts":
		for _, line := range a.Contracts.Deployments() {
			fmt.Println(line)
		}
	case "activity":
		limit := 20
		if arg(0) != "" {
			if limit, err = strconv.Atoi(arg(0)); err != nil {
				return model.Classify(model.ErrInvalidArgument, err)
			}
		}
		entries, err := a.RecentActivity(ctx, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-8s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Message)
		}
	case "serve":
		logger.Info("serving until interrupted", zap.String("session", a.Session.State().String()))
		<-ctx.Done()
	default:
		flag.Usage()
		return fmt.Errorf("unknown command `%s`", command)
	}
	return nil
}

func keygen(cfg app.Config, args []string) error {
	if cfg.Keystore == "" || cfg.KeystorePassword == "" {
		return fmt.Errorf("keygen needs a keystore path and password (keystore_password or VAULT_KEYSTORE_PASSWORD)")
	}
	kp := keypair.MustRandom()
	if len(args) > 0 {
		if args[0] != "import" {
			return errors.Wrap(model.ErrInvalidArgument, "keygen only takes `import`, secrets are read from VAULT_IMPORT_SECRET or stdin")
		}
		secret, err := importSecret(os.Getenv("VAULT_IMPORT_SECRET"), os.Stdin)
		if err != nil {
			return err
		}
		parsed, err := keypair.ParseFull(secret)
		if err != nil {
			return model.Classify(model.ErrInvalidArgument, err)
		}
		kp = parsed
	}
	if err := wallet.CreateKeystore(cfg.Keystore, cfg.KeystorePassword, kp); err != nil {
		return err
	}
	fmt.Printf("created keystore %s for %s\n", cfg.Keystore, kp.Address())
	return nil
}

// importSecret prefers the environment value and otherwise reads one line from in
func importSecret(env string, in io.Reader) (string, error) {
	if secret := strings.TrimSpace(env); secret != "" {
		return secret, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "failed reading secret from stdin")
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", errors.Wrap(model.ErrInvalidArgument, "no secret in VAULT_IMPORT_SECRET or on stdin")
	}
	return secret, nil
}

func printResult(res *model.TransactionResult, err error) error {
	if res != nil && res.Simulated {
		fmt.Printf("simulated %s (demo contract)\n", res.Hash)
	} else if res != nil {
		fmt.Printf("%s %s\n", res.Status, res.Hash)
	}
	return err
}

func printValue(val any, err error) error {
	if err != nil {
		return err
	}
	if val == nil {
		fmt.Println("(none)")
		return nil
	}
	fmt.Printf("%v\n", val)
	return nil
}
