package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/bot"
	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/service"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

func main() {
	url := flag.String("url", "http://localhost:8009", "server base URL")
	maxTurns := flag.Int("max-turns", 200, "own turns to play before ending the match (0 = no cap)")
	factions := flag.String("factions", "", "comma-separated factions, the first is played by this bot; empty uses the server default")
	opponents := flag.String("p", "", "opponent strategy config (e.g. country2=medium,*=easy); empty uses the server default")
	generator := flag.String("generator", "", "territory generator override")
	seed := flag.Int64("seed", 0, "match seed (0 = random)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	req := model.CreateMatchRequest{}
	for _, f := range strings.Split(*factions, ",") {
		if f = strings.TrimSpace(f); f != "" {
			req.Factions = append(req.Factions, conquest.FactionID(f))
		}
	}
	if len(req.Factions) > 0 {
		req.Player = req.Factions[0]
	}
	if *opponents != "" {
		listed := req.Factions
		if len(listed) == 0 {
			listed = service.DefaultSettings().Factions
		}
		req.Opponents = bot.ParseStrategyConfig(*opponents, listed)
	}
	overrides := map[string]any{}
	if *generator != "" {
		overrides["generator"] = *generator
	}
	if *seed != 0 {
		overrides["seed"] = *seed
	}
	if len(overrides) > 0 {
		raw, err := json.Marshal(overrides)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode rule overrides")
		}
		req.Rules = raw
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(bot.NewClient(*url), *maxTurns)
	res, err := orch.Run(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Str("matchId", res.MatchID).Str("outcome", string(res.Outcome)).
		Int("turns", res.Turns).Int("territories", res.Territories).
		Str("treasury", humanize.Comma(int64(res.Treasury))).Msg("Bot match completed")
}
