package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rl1809/inventory-ledger/internal/port"
)

// Mock Transactor recording unit outcomes
type mockUnit struct {
	port.Unit
	commits   int
	rollbacks int
	commitErr error
}

func (u *mockUnit) Commit() error {
	u.commits++
	return u.commitErr
}

func (u *mockUnit) Rollback() error {
	u.rollbacks++
	return nil
}

type mockTransactor struct {
	unit     *mockUnit
	beginErr error
}

func (m *mockTransactor) Begin(context.Context) (port.Unit, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.unit, nil
}

func TestRunInUnit_Commits(t *testing.T) {
	tx := &mockTransactor{unit: &mockUnit{}}

	var hooked bool
	err := RunInUnit(context.Background(), tx, func(ctx context.Context, _ port.Unit) error {
		AfterCommit(ctx, func(context.Context) { hooked = true })
		if hooked {
			t.Error("hook ran before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.unit.commits != 1 {
		t.Errorf("expected 1 commit, got %d", tx.unit.commits)
	}
	if !hooked {
		t.Error("expected after-commit hook to run")
	}
}

func TestRunInUnit_ErrorRollsBack(t *testing.T) {
	tx := &mockTransactor{unit: &mockUnit{}}
	errStep := errors.New("step failed")

	var hooked bool
	err := RunInUnit(context.Background(), tx, func(ctx context.Context, _ port.Unit) error {
		AfterCommit(ctx, func(context.Context) { hooked = true })
		return errStep
	})
	if err != errStep {
		t.Fatalf("expected the step error unchanged, got %v", err)
	}
	if tx.unit.commits != 0 || tx.unit.rollbacks == 0 {
		t.Errorf("expected rollback without commit, got commits=%d rollbacks=%d", tx.unit.commits, tx.unit.rollbacks)
	}
	if hooked {
		t.Error("after-commit hook must not run on rollback")
	}
}

func TestRunInUnit_Nested(t *testing.T) {
	tx := &mockTransactor{unit: &mockUnit{}}

	err := RunInUnit(context.Background(), tx, func(ctx context.Context, outer port.Unit) error {
		return RunInUnit(ctx, &mockTransactor{beginErr: errors.New("must not begin")}, func(ctx context.Context, inner port.Unit) error {
			if inner != outer {
				t.Error("inner call should join the outer unit")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.unit.commits != 1 {
		t.Errorf("expected only the outer call to commit, got %d", tx.unit.commits)
	}
}

func TestRunInUnit_BeginAndCommitErrors(t *testing.T) {
	errBegin := errors.New("no connection")
	err := RunInUnit(context.Background(), &mockTransactor{beginErr: errBegin}, func(context.Context, port.Unit) error {
		t.Error("fn must not run when begin fails")
		return nil
	})
	if !errors.Is(err, errBegin) {
		t.Errorf("expected begin error, got %v", err)
	}

	errCommit := errors.New("deadlock")
	tx := &mockTransactor{unit: &mockUnit{commitErr: errCommit}}
	var hooked bool
	err = RunInUnit(context.Background(), tx, func(ctx context.Context, _ port.Unit) error {
		AfterCommit(ctx, func(context.Context) { hooked = true })
		return nil
	})
	if !errors.Is(err, errCommit) {
		t.Errorf("expected commit error, got %v", err)
	}
	if hooked {
		t.Error("after-commit hook must not run when commit fails")
	}
}

func TestAfterCommit_OutsideUnitRunsNow(t *testing.T) {
	var hooked bool
	AfterCommit(context.Background(), func(context.Context) { hooked = true })
	if !hooked {
		t.Error("expected hook to run immediately outside a unit")
	}
}
