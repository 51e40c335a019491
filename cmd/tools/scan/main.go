package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/david/ai-lead-finder/internal/app"
	"github.com/david/ai-lead-finder/internal/config"
	"github.com/david/ai-lead-finder/internal/leads"
	"github.com/david/ai-lead-finder/internal/models"
)

func main() {
	limit := flag.Int("limit", 20, "Number of leads to print")
	sortBy := flag.String("sort", "score", "Sort key: score, posted_date, due_date, value, title, agency")
	asc := flag.Bool("asc", false, "Sort ascending")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	app.SetupLogging(cfg)

	key, err := leads.ParseSortKey(*sortBy)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to build pipeline: %v", err)
	}
	defer pipeline.Close()

	res, err := pipeline.Scan(ctx)
	if err != nil {
		logrus.Fatalf("Scan failed: %v", err)
	}

	list := leads.Shape(res.Records)
	leads.Sort(list, key, !*asc)
	if *limit > 0 && len(list) > *limit {
		list = list[:*limit]
	}

	fmt.Println("=== LEADS ===")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Score", "Title", "Agency", "Type", "Posted", "Email", "Err/Warn/Info"})
	for _, l := range list {
		posted := "-"
		if l.PostedDate != nil {
			posted = l.PostedDate.Format("2006-01-02")
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%.1f", l.Score),
			truncate(l.Title, 50),
			truncate(l.Agency, 30),
			l.Type,
			posted,
			l.Email,
			messageCounts(l.ValidationMessages),
		})
	}
	t.Render()

	d := res.Diagnostics
	fmt.Printf("\n=== SOURCES (scan %s, %s) ===\n", d.ScanID, d.Duration.Round(time.Millisecond))
	st := table.NewWriter()
	st.SetOutputMirror(os.Stdout)
	st.AppendHeader(table.Row{"Source", "Status", "Attempts", "Candidates", "Accepted", "Skipped", "Parse Failures", "Details", "Duration", "Error"})
	for _, s := range d.Sources {
		skipped := 0
		for _, n := range s.Skipped {
			skipped += n
		}
		st.AppendRow(table.Row{
			s.ID, s.Status, s.Attempts, s.Candidates, s.Accepted, skipped,
			s.ParseFailures, s.DetailFetches, s.Duration.Round(time.Millisecond), truncate(s.Error, 40),
		})
	}
	st.AppendFooter(table.Row{"", "", "", "", d.Extracted, d.Skipped, d.ParseFailures, "", "", fmt.Sprintf("%d failed, %d duplicates", d.FailedSources, d.Deduplicated)})
	st.Render()

	if d.TimedOut {
		fmt.Println("\nScan hit its timeout; results are partial.")
	}
}

func messageCounts(msgs []models.ValidationMessage) string {
	var e, w, i int
	for _, m := range msgs {
		switch m.Kind {
		case models.KindError:
			e++
		case models.KindWarning:
			w++
		case models.KindInfo:
			i++
		}
	}
	return fmt.Sprintf("%d/%d/%d", e, w, i)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
