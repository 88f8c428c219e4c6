// lessonctl loads a view as a learner and prints where they stand.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/mind-engage/mindengage-lessons/internal/config"
	"github.com/mind-engage/mindengage-lessons/internal/engine"
	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
	"github.com/mind-engage/mindengage-lessons/internal/syncclient"
)

func main() {
	var (
		viewID  int64
		restart bool
		walk    bool
		reveal  bool
	)
	flag.Int64Var(&viewID, "view", 0, "view id to load")
	flag.BoolVar(&restart, "restart", false, "reset stored progress and submissions before printing")
	flag.BoolVar(&walk, "walk", false, "visit every slide, finishing videos")
	flag.BoolVar(&reveal, "reveal", false, "with -walk: reveal answers of unanswered assessments")
	flag.Parse()

	if viewID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: lessonctl -view ID [-restart] [-walk [-reveal]]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	client := syncclient.New(syncclient.Config{
		BaseURL:      cfg.APIURL,
		Token:        cfg.APIToken,
		TokenURL:     cfg.APITokenURL,
		ClientID:     cfg.APIClientID,
		ClientSecret: cfg.APIClientSecret,
		Timeout:      cfg.SyncTimeout,
	})
	e := engine.New(client,
		engine.WithLogger(log),
		engine.WithQueueSize(cfg.SyncQueueSize),
		engine.WithSyncTimeout(cfg.SyncTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.SyncTimeout+5*time.Second)
	defer cancel()

	if err := run(ctx, e, viewID, restart, walk, reveal, os.Stdout); err != nil {
		e.Close()
		fmt.Printf("lessonctl: %v\n", err)
		os.Exit(1)
	}
	e.Close()
}

func run(ctx context.Context, e *engine.Engine, viewID int64, restart, walk, reveal bool, out io.Writer) error {
	if err := e.LoadView(ctx, viewID); err != nil {
		return err
	}
	if restart {
		if err := e.RestartView(ctx); err != nil {
			return err
		}
	}
	if walk {
		walkSlides(e, reveal)
	}
	printState(out, e.State())
	return nil
}

// walkSlides visits each slide in order. Videos count as fully watched.
func walkSlides(e *engine.Engine, reveal bool) {
	n := len(e.State().Slides)
	for i := 0; i < n; i++ {
		e.GoTo(i)
		cur, ok := e.Current()
		if !ok {
			continue
		}
		switch s := cur.(type) {
		case *slide.Content:
			e.ReportVideoProgress(i, 1)
		case *slide.Assessment:
			if reveal && !s.Submitted {
				e.Reveal()
			}
		}
	}
}

func printState(out io.Writer, st engine.Snapshot) {
	fmt.Fprintf(out, "view %d %q quiz=%t status=%s at=%d\n", st.View.ID, st.View.Name, st.View.Quiz, st.Status, st.CurrentIndex)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tNAME\tDONE\tDETAIL")
	for i, s := range st.Slides {
		b := s.Common()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, s.Kind(), b.Name, mark(b.Completed), detail(s))
	}
	_ = tw.Flush()
}

func detail(s slide.Slide) string {
	switch v := s.(type) {
	case *slide.Content:
		if len(v.Items) == 0 {
			return "-"
		}
		return string(v.Items[0].Type)
	case *slide.Assessment:
		state := "unanswered"
		switch {
		case v.Revealed:
			state = "revealed"
		case v.Submitted && v.IsCorrect:
			state = "correct"
		case v.Submitted:
			state = "incorrect"
		}
		return fmt.Sprintf("%s, %s", v.Question.Type, state)
	case *slide.Activity:
		return v.ActivityID
	}
	return ""
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
