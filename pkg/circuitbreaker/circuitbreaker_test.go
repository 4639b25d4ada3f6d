package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
)

func TestAllowConsumesBudget(t *testing.T) {
	g := NewGuard(Config{FailureThreshold: 3, CallBudget: 2})

	if err := g.Allow(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := g.Allow(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if err := g.Allow(); !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("third call: got %v, want ErrBudgetExceeded", err)
	}
	if g.CallsUsed() != 2 {
		t.Fatalf("CallsUsed = %d, want 2", g.CallsUsed())
	}
}

func TestBreakerOpensOnConsecutiveFailures(t *testing.T) {
	g := NewGuard(Config{FailureThreshold: 3, CallBudget: 100})

	g.OnFailure()
	g.OnFailure()
	if g.GetState() != StateClosed {
		t.Fatal("breaker opened below the threshold")
	}
	g.OnFailure()
	if g.GetState() != StateOpen {
		t.Fatal("breaker closed after reaching the threshold")
	}
	if err := g.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("Allow after open: got %v, want ErrOpen", err)
	}
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	g := NewGuard(Config{FailureThreshold: 3, CallBudget: 100})

	g.OnFailure()
	g.OnFailure()
	g.OnSuccess()
	g.OnFailure()
	g.OnFailure()
	if g.GetState() == StateOpen {
		t.Fatal("two failures after a reset should not open a threshold-3 breaker")
	}
}

func TestBudgetUnderConcurrency(t *testing.T) {
	const budget = 10
	g := NewGuard(Config{FailureThreshold: 100, CallBudget: budget})

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow() == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != budget {
		t.Fatalf("granted %d calls, want exactly %d", granted, budget)
	}
}
