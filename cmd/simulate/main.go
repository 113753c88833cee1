// Package main - simulate
// Deterministic scenario runner for balance tuning. Drives a single
// session through a scripted day on a fake clock and prints what the
// economy did, so a tuning change can be diffed run against run.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/engine"
	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/tuning"
)

func main() {
	seed := flag.Int64("seed", 1, "RNG seed for crime rolls")
	offline := flag.Duration("offline", 8*time.Hour, "length of the final offline window")
	flag.Parse()

	tun := tuning.Default()
	cats := catalog.Default()
	appLogger := logger.NewLogger()

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	clock := engine.NewFakeClock(start)
	eventLog := events.NewEventLog(nil)

	playerID := "SIM_001"
	businesses, terrs, units, missions := engine.NewPlayerTree(playerID, "Don Simulato", cats)
	sess := engine.NewSession(engine.SessionConfig{
		Clock:       clock,
		Rand:        rand.New(rand.NewSource(*seed)),
		Tuning:      tun,
		Catalogs:    cats,
		Logger:      appLogger,
		EventLog:    eventLog,
		Player:      engine.NewPlayer(playerID, "Don Simulato", 2000),
		Businesses:  businesses,
		Territories: terrs,
		Units:       units,
		Missions:    missions,
	})

	fmt.Println("=========================================")
	fmt.Println("OMERTA SCENARIO RUNNER")
	fmt.Println("=========================================")
	fmt.Printf("Seed: %d  Start: %s  Offline tail: %v\n\n", *seed, start.Format(time.RFC3339), *offline)

	snap := sess.Snapshot()
	fmt.Printf("Day 0: cash %.0f, energy %.0f/%.0f, level %d (%s)\n\n",
		snap.Player.Cash, snap.Player.Energy, snap.Player.MaxEnergy,
		snap.Player.Level, snap.Player.Rank)

	// Morning: grind the cheapest crime until energy or luck runs out.
	fmt.Println("--- Morning crime spree ---")
	crimeID := cheapestCrime(cats)
	for i := 0; i < 10; i++ {
		out, _, err := sess.CommitCrime(crimeID)
		if err != nil {
			fmt.Printf("  %s stopped: %v\n", crimeID, err)
			break
		}
		verdict := "failed"
		if out.Success {
			verdict = fmt.Sprintf("paid %.0f cash, %.0f XP", out.CashReward, out.XPReward)
		}
		fmt.Printf("  %s %s (roll %.3f)\n", crimeID, verdict, out.Roll)
		clock.Advance(10 * time.Minute)
		must(sess.CatchUp())
	}

	// Midday: put the proceeds into construction.
	fmt.Println("\n--- Construction ---")
	for _, b := range sess.Snapshot().Businesses {
		if _, err := sess.StartBuild(b.ID); err != nil {
			fmt.Printf("  build %-22s rejected: %v\n", b.ID, err)
			continue
		}
		fmt.Printf("  build %-22s started (%.0f cash, %v)\n", b.ID, b.BuildCost, b.BuildDuration)
	}
	clock.Advance(4 * time.Hour)
	recap := must(sess.CatchUp())
	fmt.Printf("  4h later: %d actions resolved, %.0f cash accrued\n", len(recap.Resolved), recap.CashEarned)

	// Afternoon: contest the weakest hostile territory.
	fmt.Println("\n--- Turf war ---")
	launchAttack(sess, clock, tun)

	// Night: close the app and come back tomorrow.
	fmt.Println("\n--- Offline window ---")
	clock.Advance(*offline)
	recap = must(sess.CatchUp())
	fmt.Printf("  away %v: +%.0f cash, +%.0f XP, +%.0f energy, %d levels, %d actions settled\n",
		recap.Elapsed, recap.CashEarned, recap.XPEarned, recap.EnergyRestored,
		recap.LevelsGained, len(recap.Resolved))
	for _, m := range recap.MissionsCompleted {
		fmt.Printf("  mission complete: %s\n", m)
	}

	snap = sess.Snapshot()
	fmt.Println("\n=========================================")
	fmt.Printf("End of day: cash %.0f, respect %d, level %d (%s), %d events logged\n",
		snap.Player.Cash, snap.Player.Respect, snap.Player.Level, snap.Player.Rank, eventLog.Len())
	fmt.Println("=========================================")
}

func cheapestCrime(cats *catalog.Catalogs) string {
	best := ""
	bestCost := 0.0
	for id, def := range cats.Crimes.ByID {
		if def.RequiredLevel > 1 {
			continue
		}
		if best == "" || def.EnergyCost < bestCost {
			best, bestCost = id, def.EnergyCost
		}
	}
	return best
}

func launchAttack(sess *engine.Session, clock *engine.FakeClock, tun tuning.Tuning) {
	snap := sess.Snapshot()
	if len(snap.Units) == 0 {
		fmt.Println("  no unit available")
		return
	}
	unit := snap.Units[0]

	for _, t := range snap.Territories {
		_, err := sess.StartAttack(t.ID, unit.ID, unit.Garrison)
		if err != nil {
			fmt.Printf("  attack %-18s rejected: %v\n", t.ID, err)
			continue
		}
		fmt.Printf("  attack %-18s launched with %d soldiers\n", t.ID, unit.Garrison)
		clock.Advance(time.Duration(tun.AttackSeconds) * time.Second)
		recap := must(sess.CatchUp())
		for _, res := range recap.Resolved {
			fmt.Printf("  resolved: %s %s\n", res.Kind, res.EntityID)
		}
		return
	}
}

func must(recap engine.Recap, _ []events.Event, err error) engine.Recap {
	if err != nil {
		fmt.Fprintf(os.Stderr, "catch-up failed: %v\n", err)
		os.Exit(1)
	}
	return recap
}
