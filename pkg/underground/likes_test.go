package underground

import (
	"testing"
	"time"
)

func TestLikeGuardWindow(t *testing.T) {
	clock := newFakeClock()
	guard := newLikeGuard(24*time.Hour, clock.Now)

	if !guard.Allow("dj_test", "1.2.3.4") {
		t.Fatal("First like should pass")
	}
	if guard.Allow("dj_test", "1.2.3.4") {
		t.Fatal("Repeat within the window should be throttled")
	}

	// other artist and other IP are independent keys
	if !guard.Allow("mc_other", "1.2.3.4") {
		t.Error("Same IP on another artist should pass")
	}
	if !guard.Allow("dj_test", "5.6.7.8") {
		t.Error("Another IP on the same artist should pass")
	}

	clock.Advance(23 * time.Hour)
	if guard.Allow("dj_test", "1.2.3.4") {
		t.Error("Still inside the window, should be throttled")
	}

	clock.Advance(2 * time.Hour)
	if !guard.Allow("dj_test", "1.2.3.4") {
		t.Error("Window has rolled, like should pass")
	}
}

func TestLikeGuardLazyCleanup(t *testing.T) {
	clock := newFakeClock()
	guard := newLikeGuard(time.Hour, clock.Now)

	guard.Allow("dj_test", "1.2.3.4")
	guard.Allow("dj_test", "5.6.7.8")
	if len(guard.byArtist["dj_test"]) != 2 {
		t.Fatalf("Expected 2 tracked IPs, got %d", len(guard.byArtist["dj_test"]))
	}

	// entries quiet for a full window are pruned on the next like
	clock.Advance(2 * time.Hour)
	guard.Allow("dj_test", "9.9.9.9")
	if got := len(guard.byArtist["dj_test"]); got != 1 {
		t.Errorf("Expected stale entries pruned down to 1, got %d", got)
	}
}
