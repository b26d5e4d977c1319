package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Santosh-B-Vitana/smsv2-sub000/engine"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/paginate"
	"github.com/Santosh-B-Vitana/smsv2-sub000/ratelimit"
	"github.com/Santosh-B-Vitana/smsv2-sub000/scope"
)

type reminderBatch struct {
	School   string `json:"school"`
	Students int    `json:"students"`
}

type reminderReport struct {
	Sent int `json:"sent"`
}

type student struct {
	ID    string
	Class string
}

func registerHandlers(eng *engine.Engine) {
	engine.Register(eng, job.NewDefinition("fees.reminders",
		func(ctx context.Context, b reminderBatch) (reminderReport, error) {
			for i := 1; i <= b.Students; i++ {
				select {
				case <-ctx.Done():
					return reminderReport{Sent: i - 1}, ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
				job.ReportProgress(ctx, i*100/b.Students)
			}
			return reminderReport{Sent: b.Students}, nil
		},
	))
}

func demoCmd() *cobra.Command {
	var schools, perSchool int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted workload and print the outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), schools, perSchool)
		},
	}
	cmd.Flags().IntVar(&schools, "schools", 3, "number of tenants submitting work")
	cmd.Flags().IntVar(&perSchool, "requests", 5, "submissions attempted per tenant")
	return cmd
}

func runDemo(ctx context.Context, schools, perSchool int) error {
	_, eng, shutdownTracer, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = eng.Stop(stopCtx)
	}()

	var mu sync.Mutex
	var accepted []id.JobID
	denied := 0

	g, gctx := errgroup.WithContext(ctx)
	for s := 1; s <= schools; s++ {
		school := fmt.Sprintf("SCH%03d", s)
		g.Go(func() error {
			tctx := scope.WithTenant(gctx, school)
			for range perSchool {
				err := eng.RequireLimit(tctx, ratelimit.Key("fees", school))
				var ex *ratelimit.ExceededError
				if errors.As(err, &ex) {
					mu.Lock()
					denied++
					mu.Unlock()
					continue
				}
				if err != nil {
					return err
				}

				j, err := engine.Enqueue(tctx, eng, "fees.reminders", reminderBatch{School: school, Students: 4})
				if err != nil {
					return err
				}
				mu.Lock()
				accepted = append(accepted, j.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	for _, jobID := range accepted {
		j, err := eng.Wait(ctx, jobID)
		if err != nil {
			return fmt.Errorf("wait for %s: %w", jobID, err)
		}
		slog.Info("job finished",
			slog.String("job_id", j.ID.String()),
			slog.String("tenant", j.Tenant),
			slog.String("state", string(j.State)),
			slog.String("result", string(j.Result)),
		)
	}

	p := engine.NewPaginator(eng, loadRoster, func(s student) string { return s.ID })
	page, err := p.Offset(ctx, "students:SCH001", []paginate.Filter[student]{
		func(s student) bool { return s.Class == "7A" },
	}, 1, 5)
	if err != nil {
		return err
	}

	fmt.Printf("accepted=%d denied=%d roster_7A_total=%d first_page=%d pages=%d\n",
		len(accepted), denied, page.Total, len(page.Data), page.TotalPages)
	return nil
}

func loadRoster(_ context.Context, _ string) ([]student, error) {
	out := make([]student, 0, 24)
	for i := range 24 {
		class := "7A"
		if i%3 == 0 {
			class = "7B"
		}
		out = append(out, student{ID: "STU" + strconv.Itoa(100+i), Class: class})
	}
	return out, nil
}
