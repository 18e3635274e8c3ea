package debounce

import (
	"math/rand"
	"testing"

	"github.com/sweeney/door-sensor/internal/clock"
)

// scriptedSource returns whatever value the test last assigned.
type scriptedSource struct {
	value bool
	reads int
}

func (s *scriptedSource) Raw() bool {
	s.reads++
	return s.value
}

func newTestInput(t *testing.T) (*Input, *scriptedSource, *clock.Fake) {
	t.Helper()
	src := &scriptedSource{}
	clk := clock.NewFake(0)
	return New(src, clk, 100), src, clk
}

func TestNewDefaultWindow(t *testing.T) {
	clk := clock.NewFake(0)
	in := New(SourceFunc(func() bool { return true }), clk, 0)

	in.Update()
	clk.Set(DefaultWindow)
	in.Update()
	if in.State() {
		t.Fatalf("settled at t=%d, window should be %d", DefaultWindow, DefaultWindow)
	}
	clk.Set(DefaultWindow + 1)
	in.Update()
	if !in.State() {
		t.Errorf("expected settled once more than %dms had passed", DefaultWindow)
	}
}

func TestUpdateReadsOncePerCall(t *testing.T) {
	in, src, clk := newTestInput(t)
	for i := 0; i < 5; i++ {
		in.Update()
		clk.Advance(10)
	}
	if src.reads != 5 {
		t.Errorf("expected 5 raw reads, got %d", src.reads)
	}
}

func TestSettlesAfterWindow(t *testing.T) {
	in, src, clk := newTestInput(t)

	src.value = true
	in.Update() // t=0, candidate changes
	if in.State() {
		t.Error("should not settle immediately")
	}

	clk.Set(100)
	in.Update()
	if in.State() {
		t.Error("should not settle at exactly the window")
	}

	clk.Set(101)
	in.Update()
	if !in.State() {
		t.Error("should settle once the window is exceeded")
	}
}

func TestBouncingNeverSettles(t *testing.T) {
	in, src, clk := newTestInput(t)
	clk.Set(1000)

	// Toggle every 50ms, faster than the window.
	for i := 0; i < 20; i++ {
		src.value = !src.value
		in.Update()
		if in.State() {
			t.Fatalf("settled during bounce at t=%d", clk.Now())
		}
		clk.Advance(50)
	}

	// Hold true; the last toggle left the value false, so flip once more.
	src.value = true
	in.Update()
	start := clk.Now()
	for clk.Now() <= start+100 {
		clk.Advance(10)
		in.Update()
	}
	if !in.State() {
		t.Error("expected settled true after holding past the window")
	}
}

func TestShortGlitchIgnored(t *testing.T) {
	in, src, clk := newTestInput(t)

	src.value = true
	in.Update()
	clk.Set(200)
	in.Update()
	if !in.State() {
		t.Fatal("expected settled true")
	}

	// A 30ms glitch to false must not change the settled value.
	clk.Set(300)
	src.value = false
	in.Update()
	clk.Set(330)
	src.value = true
	in.Update()
	clk.Set(500)
	in.Update()
	if !in.State() {
		t.Error("glitch should not have changed settled state")
	}
}

func TestAllowedToShortSleep(t *testing.T) {
	in, src, clk := newTestInput(t)

	clk.Set(1000)
	src.value = true
	in.Update()

	for _, tt := range []struct {
		at   clock.Millis
		want bool
	}{
		{1000, false},
		{1100, false},
		{1200, false},
		{1201, true},
		{5000, true},
	} {
		clk.Set(tt.at)
		in.Update()
		if got := in.AllowedToShortSleep(); got != tt.want {
			t.Errorf("t=%d: AllowedToShortSleep got %v, want %v", tt.at, got, tt.want)
		}
	}

	// Any change restarts the quiet period.
	clk.Set(6000)
	src.value = false
	in.Update()
	if in.AllowedToShortSleep() {
		t.Error("expected sleep to be blocked right after a change")
	}
}

// TestRandomSequenceLag drives random bouncy input and checks that the
// settled value only ever adopts a candidate that has been stable for more
// than the window, and changes at most once per window.
func TestRandomSequenceLag(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	in, src, clk := newTestInput(t)

	var (
		lastRawChange clock.Millis
		lastSettled   = in.State()
		lastSettledAt clock.Millis
		haveSettled   bool
	)

	for i := 0; i < 5000; i++ {
		clk.Advance(clock.Millis(1 + rng.Intn(40)))
		if rng.Intn(8) == 0 {
			src.value = !src.value
			lastRawChange = clk.Now()
		}
		in.Update()

		if in.State() != lastSettled {
			now := clk.Now()
			if in.State() != src.value {
				t.Fatalf("t=%d: settled to %v but raw is %v", now, in.State(), src.value)
			}
			if now-lastRawChange <= 100 {
				t.Fatalf("t=%d: settled only %dms after raw change", now, now-lastRawChange)
			}
			if haveSettled && now-lastSettledAt <= 100 {
				t.Fatalf("t=%d: settled twice within %dms", now, now-lastSettledAt)
			}
			lastSettled = in.State()
			lastSettledAt = now
			haveSettled = true
		}
	}
}
