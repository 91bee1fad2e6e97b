// Command trial-report renders the summary, plots and dashboard of stored
// experiment sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/banshee-data/steering.lab/internal/report"
	"github.com/banshee-data/steering.lab/internal/security"
	"github.com/banshee-data/steering.lab/internal/session"
	"github.com/banshee-data/steering.lab/internal/storage/sqlite"
	"github.com/banshee-data/steering.lab/internal/version"
)

func main() {
	var (
		dbPath    string
		sessionID string
		outDir    string
		all       bool
		list      bool
		showVer   bool
	)
	flag.StringVar(&dbPath, "db", "steering.db", "path to sqlite db")
	flag.StringVar(&sessionID, "session", "", "session to report on (default: most recent)")
	flag.StringVar(&outDir, "out", "reports", "output directory")
	flag.BoolVar(&all, "all", false, "pool every session into one report")
	flag.BoolVar(&list, "list", false, "only list stored sessions")
	flag.BoolVar(&showVer, "version", false, "print version and exit")
	flag.Parse()

	if showVer {
		fmt.Println(version.String("trial-report"))
		return
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	sessions := sqlite.NewSessionStore(db.DB)
	trials := sqlite.NewTrialStore(db.DB)
	ctx := context.Background()

	rows, err := sessions.List()
	if err != nil {
		log.Fatalf("list sessions: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("no sessions in %s", dbPath)
	}

	if list {
		schema, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("schema version: %v", err)
		}
		fmt.Printf("schema version %d (dirty=%t), %d session(s)\n", schema, dirty, len(rows))
		for _, r := range rows {
			finished := "unfinished"
			if r.FinishedAt != nil {
				finished = time.Unix(0, *r.FinishedAt).Format(time.RFC3339)
			}
			fmt.Printf("%s\t%s\t%d planned\t%s\t%s\n", r.SessionID, r.Participant, r.Planned,
				time.Unix(0, r.StartedAt).Format(time.RFC3339), finished)
		}
		return
	}

	var selected []*sqlite.SessionRow
	switch {
	case all:
		selected = rows
	case sessionID != "":
		row, err := sessions.Get(sessionID)
		if err != nil {
			log.Fatalf("find session: %v", err)
		}
		selected = []*sqlite.SessionRow{row}
	default:
		selected = rows[:1]
	}

	var records []session.Record
	for _, row := range selected {
		recs, err := trials.ListBySession(ctx, row.SessionID)
		if err != nil {
			log.Fatalf("load trials of %s: %v", row.SessionID, err)
		}
		for _, r := range recs {
			records = append(records, r.Record)
		}
	}

	name, title := "all", fmt.Sprintf("%d sessions", len(selected))
	if len(selected) == 1 {
		name = selected[0].SessionID
		title = fmt.Sprintf("Session %s (%s)", name, selected[0].Participant)
	}
	dir, err := security.SafeJoin(outDir, name)
	if err != nil {
		log.Fatalf("report dir: %v", err)
	}
	if err := report.WriteAll(dir, title, records); err != nil {
		log.Fatalf("write report: %v", err)
	}
	fmt.Printf("%d attempts from %d session(s) written to %s\n", len(records), len(selected), dir)
}
