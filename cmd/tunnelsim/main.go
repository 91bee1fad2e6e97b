// Command tunnelsim runs a steering experiment session against a simulated
// participant and stores every attempt in the experiment database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/steering.lab/internal/config"
	"github.com/banshee-data/steering.lab/internal/engine"
	"github.com/banshee-data/steering.lab/internal/report"
	"github.com/banshee-data/steering.lab/internal/security"
	"github.com/banshee-data/steering.lab/internal/session"
	"github.com/banshee-data/steering.lab/internal/sim"
	"github.com/banshee-data/steering.lab/internal/storage/sqlite"
	"github.com/banshee-data/steering.lab/internal/units"
	"github.com/banshee-data/steering.lab/internal/version"
)

var (
	configPath  = flag.String("config", "", "Experiment config JSON (defaults to "+config.DefaultConfigPath+")")
	dbPath      = flag.String("db", "steering.db", "Path to the experiment database")
	participant = flag.String("participant", "sim", "Participant label stored with the session")
	reportDir   = flag.String("report", "", "Write summary, plots and dashboard to this directory when the session ends")

	speed     = flag.Float64("speed", sim.DefaultProfile().SpeedMmPerSec, "Simulated travel speed in mm/s")
	jitter    = flag.Float64("jitter", sim.DefaultProfile().JitterMm, "Std dev of sideways wander in mm")
	errorRate = flag.Float64("error-rate", sim.DefaultProfile().ErrorRate, "Chance of grabbing inside the corridor")
	missRate  = flag.Float64("miss-rate", sim.DefaultProfile().MissRate, "Chance of releasing halfway along the corridor")
	ideal     = flag.Bool("ideal", false, "Move dead straight and never slip, ignoring -jitter, -error-rate and -miss-rate")

	showVersion = flag.Bool("version", false, "Print version and exit")
)

func loadConfig() *config.ExperimentConfig {
	if *configPath == "" {
		cfg, err := config.LoadExperimentConfig(config.DefaultConfigPath)
		if err != nil {
			log.Printf("no usable %s (%v), using built-in defaults", config.DefaultConfigPath, err)
			return config.DefaultExperimentConfig()
		}
		return cfg
	}
	cfg, err := config.LoadExperimentConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("tunnelsim"))
		return
	}

	profile := sim.DefaultProfile()
	if *ideal {
		profile = sim.IdealProfile()
	} else {
		profile.JitterMm = *jitter
		profile.ErrorRate = *errorRate
		profile.MissRate = *missRate
	}
	profile.SpeedMmPerSec = *speed
	if err := profile.Validate(); err != nil {
		log.Fatalf("Invalid participant profile: %v", err)
	}

	cfg := loadConfig()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	sessions := sqlite.NewSessionStore(db.DB)
	trials := sqlite.NewTrialStore(db.DB)

	s, err := session.New(cfg, session.Options{Recorder: trials})
	if err != nil {
		log.Fatalf("Failed to plan session: %v", err)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("marshal config: %v", err)
	}
	seed := s.Seed()
	row := &sqlite.SessionRow{
		SessionID:   s.ID,
		Participant: *participant,
		Seed:        &seed,
		DPI:         cfg.GetDPI(),
		Planned:     s.Planned(),
		ConfigJSON:  cfgJSON,
	}
	if err := sessions.Insert(row); err != nil {
		log.Fatalf("Failed to store session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancelRunner := context.WithCancel(ctx)

	e := engine.New(s.EngineConfig(), nil)
	runner := engine.NewRunner(e, nil, s.TickInterval())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("runner stopped: %v", err)
		}
	}()

	part := sim.NewParticipant(runner, nil, units.NewConverter(cfg.GetDPI()), profile, seed)

	log.Printf("session %s: %d trials planned for %q", s.ID, s.Planned(), *participant)
	start := time.Now()
	runErr := s.Run(ctx, part)

	part.Stop()
	cancelRunner()
	wg.Wait()

	if runErr != nil {
		log.Printf("session %s stopped early: %v", s.ID, runErr)
	} else if err := sessions.Finish(s.ID, time.Now()); err != nil {
		log.Printf("failed to mark session finished: %v", err)
	}

	st := s.Stats()
	fmt.Printf("%s: %d hits, %d misses, %d errors, %d skipped in %s\n",
		s.ID, st.Hits, st.Misses, st.Errors, st.Skipped, time.Since(start).Round(time.Millisecond))

	if *reportDir == "" {
		return
	}
	recs, err := trials.ListBySession(context.Background(), s.ID)
	if err != nil {
		log.Fatalf("Failed to load trial records: %v", err)
	}
	records := make([]session.Record, len(recs))
	for i, r := range recs {
		records[i] = r.Record
	}
	dir, err := security.SafeJoin(*reportDir, s.ID)
	if err != nil {
		log.Fatalf("Invalid report directory: %v", err)
	}
	if err := report.WriteAll(dir, fmt.Sprintf("Session %s (%s)", s.ID, *participant), records); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("report written to %s\n", dir)
}
