package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"signalrouter/cmd/api"
	"signalrouter/cmd/dispatcher"
	"signalrouter/cmd/operator"
	"signalrouter/src/app"
	"signalrouter/src/database"
	"signalrouter/src/security"
	"signalrouter/src/settings"
	"signalrouter/src/utils"
)

var Version string

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded .env")
	}
	utils.SetupLogger(utils.GetLogConfig())

	cliApp := cli.NewApp()
	cliApp.Name = "signalrouter"
	cliApp.Usage = "Signal routing and strategy settings command line interface"
	cliApp.Version = Version

	cliApp.Commands = []cli.Command{
		serveCMD,
		dispatchCMD,
		migrateCMD,
		targetsCMD,
		paramsCMD,
		setSettingCMD,
		setUserFieldCMD,
		setCredentialCMD,
		deleteUserCMD,
	}

	if err := cliApp.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	userFlag     = cli.Int64Flag{Name: "user", Usage: "chat user id"}
	strategyFlag = cli.StringFlag{Name: "strategy", Usage: "strategy name, e.g. scalper"}
	exchangeFlag = cli.StringFlag{Name: "exchange", Usage: "bybit or hyperliquid (default: active exchange)"}
	sideFlag     = cli.StringFlag{Name: "side", Usage: "long, short or empty for the side-agnostic slot"}
)

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the settings HTTP API",
		Action:      serveAction,
		Description: `Serve /api, /healthcheck and /metrics`,
	}
	dispatchCMD = cli.Command{
		Name:        "dispatch",
		Usage:       "run the signal dispatcher",
		Action:      dispatchAction,
		Description: `Poll trading signals and hand dispatch plans to the order sink`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "run schema and data migrations",
		Action:      migrateAction,
		Description: `AutoMigrate every model, then run pending data migrations`,
	}
	targetsCMD = cli.Command{
		Name:   "targets",
		Usage:  "print execution targets for a user and strategy",
		Action: targetsAction,
		Flags: []cli.Flag{
			userFlag,
			strategyFlag,
			cli.StringFlag{Name: "policy", Usage: "override the stored routing policy"},
		},
	}
	paramsCMD = cli.Command{
		Name:   "params",
		Usage:  "print trade parameters for a user, strategy and symbol",
		Action: paramsAction,
		Flags: []cli.Flag{
			userFlag,
			strategyFlag,
			exchangeFlag,
			sideFlag,
			cli.StringFlag{Name: "symbol", Usage: "e.g. BTCUSDT"},
		},
	}
	setSettingCMD = cli.Command{
		Name:      "set-setting",
		Usage:     "store one strategy setting",
		ArgsUsage: "<field> <value|null>",
		Action:    setSettingAction,
		Flags:     []cli.Flag{userFlag, strategyFlag, exchangeFlag, sideFlag},
	}
	setUserFieldCMD = cli.Command{
		Name:        "set-user-field",
		Usage:       "update one user level field",
		ArgsUsage:   "<field> <value|null>",
		Action:      setUserFieldAction,
		Flags:       []cli.Flag{userFlag},
		Description: "Fields: " + settings.UserFieldNames(),
	}
	setCredentialCMD = cli.Command{
		Name:   "set-credential",
		Usage:  "encrypt and store exchange credentials",
		Action: setCredentialAction,
		Flags: []cli.Flag{
			userFlag,
			exchangeFlag,
			cli.StringFlag{Name: "account-type", Usage: "demo, real, testnet or mainnet"},
			cli.StringFlag{Name: "api-key", EnvVar: "CRED_API_KEY"},
			cli.StringFlag{Name: "api-secret", EnvVar: "CRED_API_SECRET"},
			cli.StringFlag{Name: "private-key", EnvVar: "CRED_PRIVATE_KEY"},
			cli.StringFlag{Name: "wallet-address"},
		},
	}
	deleteUserCMD = cli.Command{
		Name:   "delete-user",
		Usage:  "hard delete a user with settings and credentials",
		Action: deleteUserAction,
		Flags:  []cli.Flag{userFlag},
	}
)

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting settings API CMD")

	return (&api.API{}).Start()
}

func dispatchAction(_ *cli.Context) error {
	logrus.Info("Starting dispatcher CMD")

	d := &dispatcher.Dispatcher{Log: logrus.WithField("cmd", "dispatch")}
	if err := d.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}

func migrateAction(_ *cli.Context) error {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Migration failed")
		return err
	}
	logrus.Info("Migrations completed")
	return nil
}

func targetsAction(c *cli.Context) error {
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.Targets(context.Background(), c.Int64("user"), c.String("strategy"), c.String("policy"))
}

func paramsAction(c *cli.Context) error {
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.Params(context.Background(), c.Int64("user"), c.String("strategy"), c.String("symbol"), c.String("side"), c.String("exchange"))
}

func setSettingAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: set-setting --user ID --strategy NAME <field> <value|null>", 2)
	}
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.SetSetting(context.Background(), c.Int64("user"), c.String("strategy"),
		c.Args().Get(0), c.Args().Get(1), c.String("exchange"), c.String("side"))
}

func setUserFieldAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: set-user-field --user ID <field> <value|null>", 2)
	}
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.SetUserField(context.Background(), c.Int64("user"), c.Args().Get(0), c.Args().Get(1))
}

func setCredentialAction(c *cli.Context) error {
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.SetCredential(context.Background(), operator.CredentialInput{
		UserID:        c.Int64("user"),
		Exchange:      c.String("exchange"),
		AccountType:   c.String("account-type"),
		APIKey:        c.String("api-key"),
		APISecret:     c.String("api-secret"),
		PrivateKey:    c.String("private-key"),
		WalletAddress: c.String("wallet-address"),
	})
}

func deleteUserAction(c *cli.Context) error {
	op, err := newOperator(c)
	if err != nil {
		return err
	}
	return op.DeleteUser(context.Background(), c.Int64("user"))
}

func newOperator(c *cli.Context) (*operator.Operator, error) {
	if c.Int64("user") <= 0 {
		return nil, cli.NewExitError("--user is required", 2)
	}
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return nil, err
	}
	services, err := app.New(database.MainDB, app.Options{Log: logrus.WithField("cmd", c.Command.Name)})
	if err != nil {
		return nil, err
	}
	return &operator.Operator{App: services, Out: c.App.Writer, Encrypt: security.EncryptString}, nil
}
