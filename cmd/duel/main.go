// Command duel plays one configured fight in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"cardquest/internal/cards"
	"cardquest/internal/combat"
	"cardquest/internal/config"
	"cardquest/internal/duel"
	"cardquest/internal/logging"
)

var (
	configPath = flag.String("config", "config.yaml", "path to configuration file")
	fightID    = flag.String("fight", "wolf", "fight to play")
	seed       = flag.Uint64("seed", 0, "random seed; 0 picks one from the clock")
	logPath    = flag.String("log", "duel.log", "log file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.Output = *logPath

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("duel failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	table, err := cards.LoadTable(cfg.Content.Cards)
	if err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	fights, err := combat.LoadFights(cfg.Content.Fights)
	if err != nil {
		return fmt.Errorf("load fights: %w", err)
	}
	fc, ok := fights[*fightID]
	if !ok {
		ids := make([]string, 0, len(fights))
		for id := range fights {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return fmt.Errorf("unknown fight %q (have %v)", *fightID, ids)
	}

	opts := []combat.Option{combat.WithRules(cfg.Combat.Rules()), combat.WithLogger(logger)}
	if *seed != 0 {
		opts = append(opts, combat.WithRand(combat.NewRand(*seed)))
	}
	eng := combat.NewEngine(*fc, cards.Chain{table, cards.Parser{}}, opts...)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	res, done := duel.New(screen, eng, cfg.Pacing.Delay, logger).Run()
	screen.Fini()

	if !done {
		fmt.Println("You left the fight.")
		return nil
	}
	fmt.Printf("%s after %d turns.\n", res.Outcome, res.Turns)
	if len(res.Rewards) > 0 {
		fmt.Printf("Rewards: %v\n", res.Rewards)
	}
	return nil
}
