package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/bot"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		stratCfg  string
		factions  string
		numGames  int
		workers   int
		maxTurns  int
		width     int
		height    int
		cellSize  int
		generator string
		combat    string
		seed      int64
		jsonOut   bool
		debug     bool
	)

	flag.StringVar(&stratCfg, "p", "*=easy", "Strategy config (e.g. country1=medium,*=easy)")
	flag.StringVar(&factions, "factions", "country1,country2,country3", "Comma-separated factions; the first is the player")
	flag.IntVar(&numGames, "n", 1, "Number of matches to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel matches)")
	flag.IntVar(&maxTurns, "max-turns", 500, "Turn cap before a match is scored as unfinished")
	flag.IntVar(&width, "width", 1000, "Board width in pixels")
	flag.IntVar(&height, "height", 700, "Board height in pixels")
	flag.IntVar(&cellSize, "cell", 30, "Cell size in pixels")
	flag.StringVar(&generator, "generator", string(conquest.GenRandomWalk), "Territory generator (random_walk, sampling, noise)")
	flag.StringVar(&combat, "combat", string(conquest.CombatAttrition), "Combat policy (attrition, takeover)")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var ids []conquest.FactionID
	for _, f := range strings.Split(factions, ",") {
		if f = strings.TrimSpace(f); f != "" {
			ids = append(ids, conquest.FactionID(f))
		}
	}
	strategies := bot.ParseStrategyConfig(stratCfg, ids)
	if seed != 0 {
		bot.SeedBotRng(seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	results := make([]*bot.ArenaResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(1, workers))
	errCount := 0

	for i := range numGames {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			rules := conquest.DefaultRules()
			rules.Generator = conquest.Generator(generator)
			rules.Combat = conquest.CombatPolicy(combat)
			if seed != 0 {
				rules.Seed = seed + int64(idx)
			}

			result, err := bot.RunArena(ctx, bot.ArenaConfig{
				Name:       fmt.Sprintf("botmatch-%d", idx+1),
				Width:      width,
				Height:     height,
				CellSize:   cellSize,
				Factions:   ids,
				Strategies: strategies,
				MaxTurns:   maxTurns,
				Rules:      rules,
			})
			if err != nil {
				log.Error().Err(err).Int("match", idx+1).Msg("Match failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("match", idx+1).Str("outcome", string(result.Outcome)).
				Str("leader", string(result.Leader)).Int("turns", result.Turns).Msg("Match completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, ids, strategies, maxTurns, errCount)
	}
}

func printSummary(results []*bot.ArenaResult, factions []conquest.FactionID, strategies map[conquest.FactionID]string, maxTurns, errCount int) {
	type stats struct {
		leads     int
		survived  int
		territory int
		treasury  int
		games     int
	}

	byFaction := make(map[conquest.FactionID]*stats)
	for _, f := range factions {
		byFaction[f] = &stats{}
	}

	completed, victories, defeats, turns := 0, 0, 0, 0
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		turns += r.Turns
		switch r.Outcome {
		case conquest.OutcomeVictory:
			victories++
		case conquest.OutcomeDefeat:
			defeats++
		}
		for _, f := range factions {
			s := byFaction[f]
			s.games++
			s.territory += r.Territories[f]
			s.treasury += r.Treasuries[f]
			if r.Leader == f {
				s.leads++
			}
			if r.Territories[f] > 0 || r.Units[f] > 0 {
				s.survived++
			}
		}
	}

	fmt.Printf("\nResults (%s matches, turn cap %s):\n", humanize.Comma(int64(completed)), humanize.Comma(int64(maxTurns)))
	if errCount > 0 {
		fmt.Printf("  (%d matches failed)\n", errCount)
	}
	if completed > 0 {
		fmt.Printf("  player: %d victories, %d defeats, %d unfinished -- avg %s turns\n",
			victories, defeats, completed-victories-defeats, humanize.Ftoa(float64(turns)/float64(completed)))
	}

	for _, f := range factions {
		s := byFaction[f]
		avgTerritory, avgTreasury := 0.0, int64(0)
		if s.games > 0 {
			avgTerritory = float64(s.territory) / float64(s.games)
			avgTreasury = int64(s.treasury / s.games)
		}
		fmt.Printf("  %-10s (%s):  %d leads, %d survived  -- avg territories: %.1f, avg treasury: %s\n",
			f, strategies[f], s.leads, s.survived, avgTerritory, humanize.Comma(avgTreasury))
	}
}

func printJSON(results []*bot.ArenaResult, total, errCount int) {
	out := struct {
		Total   int                `json:"total"`
		Errors  int                `json:"errors"`
		Results []*bot.ArenaResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
