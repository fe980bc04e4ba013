package narrate

import (
	"context"
	"testing"
	"time"
)

func waitersLen(g *Gate) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

func awaitWaiters(t *testing.T, g *Gate, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if waitersLen(g) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d queued waiters, got %d", want, waitersLen(g))
}

func drainCredits(t *testing.T, g *Gate) {
	t.Helper()
	for i := 0; i < BufferSize; i++ {
		done := make(chan struct{})
		go func() {
			g.Wait(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Expected wait %d to pass on a buffered credit", i+1)
		}
	}
}

func TestDisabledGateNeverBlocks(t *testing.T) {
	g := NewGate()
	for i := 0; i < BufferSize*3; i++ {
		done := make(chan struct{})
		go func() {
			g.Wait(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Expected disabled gate to pass waits through")
		}
	}
}

func TestGateAbsorbsBurstThenBlocks(t *testing.T) {
	g := NewGate()
	g.SetEnabled(true)
	drainCredits(t, g)

	done := make(chan struct{})
	go func() {
		g.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Expected sixth wait to block with credits exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	g.Ack()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected ack to release the blocked waiter")
	}
}

func TestAckWakesWaitersInOrder(t *testing.T) {
	g := NewGate()
	g.SetEnabled(true)
	drainCredits(t, g)

	woken := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		go func() {
			g.Wait(context.Background())
			woken <- i
		}()
		awaitWaiters(t, g, i)
	}

	for want := 1; want <= 3; want++ {
		g.Ack()
		select {
		case got := <-woken:
			if got != want {
				t.Errorf("Expected waiter %d to wake, got %d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("Expected ack %d to wake a waiter", want)
		}
	}
}

func TestAckBankingIsCapped(t *testing.T) {
	g := NewGate()
	g.SetEnabled(true)
	drainCredits(t, g)

	// With nobody waiting, extra acks must not bank past the buffer.
	for i := 0; i < BufferSize*4; i++ {
		g.Ack()
	}
	drainCredits(t, g)

	done := make(chan struct{})
	go func() {
		g.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Expected wait past the banked credits to block")
	case <-time.After(50 * time.Millisecond):
	}
	g.Ack()
	<-done
}

func TestDisableDrainsWaiters(t *testing.T) {
	g := NewGate()
	g.SetEnabled(true)
	drainCredits(t, g)

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			g.Wait(context.Background())
			done <- struct{}{}
		}()
		awaitWaiters(t, g, i+1)
	}

	g.SetEnabled(false)
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Expected disabling the gate to free blocked waiters")
		}
	}
	if g.Enabled() {
		t.Error("Expected gate to report disabled")
	}

	// Credits reset on disable: re-enabling starts with a full buffer.
	g.SetEnabled(true)
	drainCredits(t, g)
}

func TestWaitTimesOut(t *testing.T) {
	g := NewGate()
	g.timeout = 30 * time.Millisecond
	g.SetEnabled(true)
	drainCredits(t, g)

	start := time.Now()
	g.Wait(context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected wait to time out quickly, took %s", elapsed)
	}
	if n := waitersLen(g); n != 0 {
		t.Errorf("Expected timed-out waiter to leave the queue, %d remain", n)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	g := NewGate()
	g.SetEnabled(true)
	drainCredits(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Wait(ctx)
		close(done)
	}()
	awaitWaiters(t, g, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected cancelled context to release the waiter")
	}
	if n := waitersLen(g); n != 0 {
		t.Errorf("Expected cancelled waiter to leave the queue, %d remain", n)
	}
}

func TestLateAckAfterTimeoutStillBanks(t *testing.T) {
	g := NewGate()
	g.timeout = 20 * time.Millisecond
	g.SetEnabled(true)
	drainCredits(t, g)

	g.Wait(context.Background())
	g.Ack()

	// The banked credit from the late ack serves the next wait.
	done := make(chan struct{})
	go func() {
		g.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected banked credit to serve the next wait")
	}
}

func TestGateSetIsPerGame(t *testing.T) {
	set := NewGateSet()
	a := set.For("game-a")
	b := set.For("game-b")
	if a == b {
		t.Fatal("Expected distinct gates for distinct games")
	}
	if set.For("game-a") != a {
		t.Error("Expected the same gate on repeat lookup")
	}

	set.SetGating("game-a", true)
	if !a.Enabled() {
		t.Error("Expected SetGating to enable the game's gate")
	}
	if b.Enabled() {
		t.Error("Expected other games to stay ungated")
	}

	drainCredits(t, a)
	done := make(chan struct{})
	go func() {
		a.Wait(context.Background())
		close(done)
	}()
	awaitWaiters(t, a, 1)
	set.Ack("game-a")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected set-level ack to reach the game's gate")
	}
}
