package provisioner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/installer"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/service"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
)

// Result is the outcome of one applied resource.
type Result struct {
	Phase    Phase
	ID       string
	Action   string
	Updated  bool
	Duration time.Duration
}

// Report summarizes a run. Failed holds the ID of the resource that aborted
// the run, if any.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []Result
	Updated  int
	Failed   string
}

// Provisioner applies plans against one target.
type Provisioner struct {
	Env     *resource.Env
	Metrics *Metrics
}

// New returns a provisioner for plan's family acting on root ("" for the
// running host).
func New(plan *Plan, root string) (*Provisioner, error) {
	packages, err := installer.NewManager(plan.Family, plan.Platform.Name, root)
	if err != nil {
		return nil, err
	}
	return &Provisioner{
		Env:     resource.NewEnv(root, packages, service.NewSupervisor(root)),
		Metrics: NewMetrics(),
	}, nil
}

// Converge applies every step of plan in order. The first failing resource
// aborts the run; nothing already applied is rolled back.
func (p *Provisioner) Converge(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	log := logger.Logger().With("run_id", report.RunID)
	log.Infof("converging %d resources for %s (%s)", len(plan.Steps), plan.Platform.Name, plan.Family)

	defer func() {
		report.Duration = time.Since(report.Started)
		if p.Metrics != nil {
			p.Metrics.recordRun(report)
		}
	}()

	for _, step := range plan.Steps {
		r := step.Resource
		id := resource.ID(r)
		start := time.Now()

		updated, err := r.Apply(ctx, p.Env)
		elapsed := time.Since(start)
		if err != nil {
			report.Failed = id
			p.record(step.Phase, r.Type(), "failed", elapsed)
			logger.AddReportItem(fmt.Sprintf("%s %s %s: FAILED: %v", step.Phase, id, r.Action(), err))
			log.Errorf("%s %s failed: %v", step.Phase, id, err)
			return report, fmt.Errorf("%s phase: %s (%s) failed: %w", step.Phase, id, r.Action(), err)
		}

		result := "unchanged"
		if updated {
			result = "updated"
			report.Updated++
			log.Infof("%s %s %s: updated", step.Phase, id, r.Action())
		} else {
			log.Debugf("%s %s %s: up to date", step.Phase, id, r.Action())
		}
		p.record(step.Phase, r.Type(), result, elapsed)
		logger.AddReportItem(fmt.Sprintf("%s %s %s: %s", step.Phase, id, r.Action(), result))
		report.Results = append(report.Results, Result{
			Phase: step.Phase, ID: id, Action: r.Action(), Updated: updated, Duration: elapsed,
		})
	}

	log.Infof("converged: %d of %d resources updated", report.Updated, len(plan.Steps))
	return report, nil
}

func (p *Provisioner) record(phase Phase, typ, result string, elapsed time.Duration) {
	if p.Metrics != nil {
		p.Metrics.recordResource(phase, typ, result, elapsed.Seconds())
	}
}
