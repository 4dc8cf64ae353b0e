package connection

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()

		// Expected sequence (without jitter): 1s, 2s, 4s, 8s, 16s, 32s, 60s, 60s...
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}

		for i, exp := range expected {
			base := b.Current()
			_ = b.Next()
			if base != exp {
				t.Errorf("Attempt %d: base = %v, want %v", i, base, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			s := NewBackoff().Next()
			if s < time.Second || s > time.Duration(float64(time.Second)*1.25)+time.Millisecond {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 5; i++ {
			b.Next()
		}
		if b.Current() <= InitialBackoff {
			t.Error("Backoff should have increased")
		}

		b.Reset()

		if b.Current() != InitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), InitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     0,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})
}

func TestPolicies(t *testing.T) {
	t.Run("Immediate", func(t *testing.T) {
		r := Immediate{}.NewRetrier()
		for i := 0; i < 1000; i++ {
			d, ok := r.Next()
			if !ok || d != 0 {
				t.Fatalf("attempt %d: got (%v, %v), want (0, true)", i, d, ok)
			}
		}
	})

	t.Run("BackoffLimit", func(t *testing.T) {
		p := BackoffPolicy{
			Config:      BackoffConfig{Initial: 10 * time.Millisecond, Max: 40 * time.Millisecond, Jitter: 0},
			MaxAttempts: 3,
		}
		r := p.NewRetrier()

		want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
		for i, exp := range want {
			d, ok := r.Next()
			if !ok || d != exp {
				t.Errorf("attempt %d: got (%v, %v), want (%v, true)", i, d, ok, exp)
			}
		}
		if _, ok := r.Next(); ok {
			t.Error("expected retrier to give up after MaxAttempts")
		}

		r.Reset()
		if d, ok := r.Next(); !ok || d != 10*time.Millisecond {
			t.Errorf("after Reset: got (%v, %v)", d, ok)
		}
	})

	t.Run("RetriersAreIndependent", func(t *testing.T) {
		p := BackoffPolicy{Config: BackoffConfig{Initial: time.Millisecond, Jitter: 0}}
		a, b := p.NewRetrier(), p.NewRetrier()
		a.Next()
		a.Next()
		if d, _ := b.Next(); d != time.Millisecond {
			t.Errorf("second retrier started at %v", d)
		}
	})
}
