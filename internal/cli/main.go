package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin"
	"github.com/joho/godotenv"
	"github.com/usdtb-otc/mint-svc/internal/allowance"
	"github.com/usdtb-otc/mint-svc/internal/config"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/service"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func Run(args []string) bool {
	log := logan.New()

	defer func() {
		if rvr := recover(); rvr != nil {
			log.WithRecover(rvr).Error("app panicked")
		}
	}()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env file")
	}

	cfg := config.New(kv.MustFromEnv())
	log = cfg.Log()

	app := kingpin.New("mint-svc", "Mints and redeems through the OTC RFQ desk")

	runCmd := app.Command("run", "run command")
	serviceCmd := runCmd.Command("service", "run mint/redeem loop until interrupted")
	onceCmd := runCmd.Command("once", "run a single cycle and exit")

	allowanceCmd := app.Command("allowance", "print the minting contract allowance of the benefactor")

	cmd, err := app.Parse(args[1:])
	if err != nil {
		log.WithError(err).Error("failed to parse arguments")
		return false
	}

	if err := config.Validate(cfg); err != nil {
		log.WithError(err).WithField("kind", order.KindOf(err).String()).Error("invalid config")
		return false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case serviceCmd.FullCommand():
		service.Run(ctx, cfg)
	case onceCmd.FullCommand():
		err = service.RunOnce(ctx, cfg)
	case allowanceCmd.FullCommand():
		err = printAllowance(ctx, cfg, log)
	default:
		log.Errorf("unknown command %s", cmd)
		return false
	}
	if err != nil {
		log.WithError(err).Error("failed to exec cmd")
		return false
	}
	return true
}

func printAllowance(ctx context.Context, cfg config.Config, log *logan.Entry) error {
	token := service.Watched(cfg)
	owner := cfg.Minter().Benefactor
	spender := cfg.Deployment().MintingContract

	current, err := allowance.New(log, service.NewChain(cfg), false).Current(ctx, owner, token.Address, spender)
	if err != nil {
		return errors.Wrap(err, "failed to read allowance")
	}

	log.WithFields(logan.F{
		"token":     token.Symbol,
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": order.FormatUnits(current, token.Decimals),
		"raw":       current.String(),
	}).Info("Current allowance")
	return nil
}
