package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/xmlmerge/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.RunReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.RunReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if n := len(p.StepNames()); n != 0 {
			t.Errorf("expected 0 steps, got %d", n)
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test-step"})

		if n := len(p.StepNames()); n != 1 {
			t.Errorf("expected 1 step, got %d", n)
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "first"},
			&mockStep{name: "second"},
		)
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()
		expected := []string{"first", "second", "third"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d names, got %d", len(expected), len(names))
		}
		for i, name := range expected {
			if names[i] != name {
				t.Errorf("expected step %d to be %q, got %q", i, name, names[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"fetch", "merge", "publish"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.RunReport) error {
					order = append(order, name)
					return nil
				},
			})
		}

		report := model.NewRunReport([]string{"https://example.com/a.xml"})
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 3 || order[0] != "fetch" || order[2] != "publish" {
			t.Errorf("unexpected execution order: %v", order)
		}
		if len(report.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", report.PerformedSteps)
		}
		if report.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("step failed")
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.RunReport) error { return stepErr }}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		report := model.NewRunReport(nil)
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, stepErr) {
			t.Errorf("expected step error, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step not to run")
		}
		if len(report.PerformedSteps) != 0 {
			t.Errorf("expected no performed steps, got %v", report.PerformedSteps)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		report := model.NewRunReport(nil)
		err := p.Execute(ctx, report)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
		if !report.Cancelled {
			t.Error("expected report to be marked cancelled")
		}
		if report.Status() != "cancelled" {
			t.Errorf("expected status cancelled, got %q", report.Status())
		}
	})

	t.Run("marks cancellation during a step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		step := &mockStep{name: "fetch", doFunc: func(ctx context.Context, _ *model.RunReport) error {
			cancel()
			return ctx.Err()
		}}

		p := New()
		p.AddStep(step)

		report := model.NewRunReport(nil)
		if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !report.Cancelled {
			t.Error("expected report to be marked cancelled")
		}
	})

	t.Run("records error in report", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "fetch", doFunc: func(context.Context, *model.RunReport) error {
			return ErrNoValidSource
		}})

		report := model.NewRunReport(nil)
		_ = p.Execute(context.Background(), report)

		if !errors.Is(report.Error, ErrNoValidSource) {
			t.Errorf("expected ErrNoValidSource in report, got %v", report.Error)
		}
		if report.ErrorMessage != ErrNoValidSource.Error() {
			t.Errorf("unexpected error message %q", report.ErrorMessage)
		}
		if report.Cancelled {
			t.Error("expected report not to be cancelled")
		}
	})
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		names := New().StepNames()
		if names == nil || len(names) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", names)
		}
	})
}
