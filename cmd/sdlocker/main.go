package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nephiel/go-sdlocker/cardimg"
	"github.com/nephiel/go-sdlocker/locker"
	"github.com/nephiel/go-sdlocker/sdspi"
	"github.com/nephiel/go-sdlocker/simcard"
)

var version = "dev"

type rootOptions struct {
	image  string
	sdhc   bool
	locked bool
	debug  bool
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:           "sdlocker",
	Short:         "Toggle the temporary write-protect bit of a (simulated) SD card.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRun,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive lock toggler",
	Long: "Run the lock-toggle control loop against a simulated card.\n" +
		"Space presses the button, q or Esc quits. Card state persists\n" +
		"in the image file between runs.",
	RunE:                  runRun,
	DisableFlagsInUseLine: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the card's registers and lock state",
	RunE:  runStatus,
	DisableFlagsInUseLine: true,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the lock bit once and exit",
	RunE:  runToggle,
	DisableFlagsInUseLine: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "sdlocker version: %s\n", version)
		return nil
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.image, "image", "i", "card.sdimg", "Card image file")
	rootCmd.PersistentFlags().BoolVar(&opts.sdhc, "sdhc", true, "Card personality when creating a new image")
	rootCmd.PersistentFlags().BoolVar(&opts.locked, "locked", false, "Initial lock state when creating a new image")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sdlocker: %s\n", err.Error())
		os.Exit(1)
	}
}

// newLogger builds the zap-backed locker.Logger. Debug mode gets the full
// development output; otherwise only warnings and up reach the terminal,
// so log lines do not fight the LED rendering.
func newLogger() (locker.Logger, func(), error) {
	cfg := zap.NewDevelopmentConfig()
	if opts.debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	sync := func() { _ = logger.Sync() }
	return &zapLogger{sugar: logger.Sugar()}, sync, nil
}

// zapLogger adapts a zap sugared logger to the locker.Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// loadCard builds the simulated card, resuming from the image file when it
// exists and starting fresh otherwise.
func loadCard() (*simcard.Card, error) {
	img, err := cardimg.Load(opts.image)
	if errors.Is(err, os.ErrNotExist) {
		return simcard.New(
			simcard.WithSDHC(opts.sdhc),
			simcard.WithLocked(opts.locked),
		), nil
	}
	if err != nil {
		return nil, err
	}

	return simcard.New(
		simcard.WithSDHC(img.SDHC),
		simcard.WithCSD(img.CSD),
		simcard.WithCID(img.CID),
	), nil
}

// saveCard persists the card's registers back to the image file.
func saveCard(card *simcard.Card) error {
	img := &cardimg.Image{
		SDHC: card.SDHC(),
		CSD:  card.CSD(),
		CID:  card.CID(),
	}
	return img.Save(opts.image)
}

func runStatus(cmd *cobra.Command, args []string) error {
	card, err := loadCard()
	if err != nil {
		return err
	}

	sess := sdspi.NewSession(card)
	if err := sess.Init(); err != nil {
		return fmt.Errorf("initialize card: %w", err)
	}
	if err := sess.ReadCSD(); err != nil {
		return fmt.Errorf("read CSD: %w", err)
	}
	if err := sess.ReadCID(); err != nil {
		return fmt.Errorf("read CID: %w", err)
	}

	state := "unlocked"
	if sess.Locked() {
		state = "locked"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "image: %s\n", opts.image)
	fmt.Fprintf(out, "kind:  %s\n", sess.Kind)
	fmt.Fprintf(out, "state: %s\n", state)
	fmt.Fprintf(out, "CSD:   % X\n", sess.CSD)
	fmt.Fprintf(out, "CID:   % X\n", sess.CID)

	if err := saveCard(card); err != nil {
		return err
	}
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	card, err := loadCard()
	if err != nil {
		return err
	}

	sess := sdspi.NewSession(card)
	if err := sess.Init(); err != nil {
		return fmt.Errorf("initialize card: %w", err)
	}
	if err := sess.ReadCSD(); err != nil {
		return fmt.Errorf("read CSD: %w", err)
	}

	prev := sess.Locked()
	sess.ToggleLock()
	if err := sess.WriteCSD(); err != nil {
		return fmt.Errorf("write CSD: %w", err)
	}

	// Re-read to verify the change actually took.
	if err := sess.Init(); err != nil {
		return fmt.Errorf("reinitialize card: %w", err)
	}
	if err := sess.ReadCSD(); err != nil {
		return fmt.Errorf("verify CSD: %w", err)
	}
	if sess.Locked() == prev {
		return fmt.Errorf("lock state did not change")
	}

	if err := saveCard(card); err != nil {
		return err
	}

	state := "unlocked"
	if sess.Locked() {
		state = "locked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "card is now %s\n", state)
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	card, err := loadCard()
	if err != nil {
		return err
	}

	logger, sync, err := newLogger()
	if err != nil {
		return err
	}
	defer sync()

	button, stopInput, err := newKeyButton()
	if err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}
	defer stopInput()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go button.watch(cancel)

	fmt.Fprintln(cmd.OutOrStdout(), "space = button, q/Esc = quit")

	lk := locker.New(card,
		locker.WithIndicator(newTermIndicator(cmd.OutOrStdout())),
		locker.WithButton(button),
		locker.WithLogger(logger),
	)

	err = lk.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout())

	if saveErr := saveCard(card); saveErr != nil {
		return saveErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
