package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSaveGuard_OneSavePerSite(t *testing.T) {
	var g saveGuard

	release1, err := g.acquire("site-1")
	if err != nil {
		t.Fatalf("expected first acquire to succeed: %v", err)
	}
	if _, err := g.acquire("site-1"); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected ErrSaveInProgress for a busy site, got %v", err)
	} else if got := err.Error(); got != "save site site-1: save already in progress" {
		t.Errorf("error should name the site, got %q", got)
	}
	release2, err := g.acquire("site-2")
	if err != nil {
		t.Fatalf("expected acquire for another site to succeed: %v", err)
	}

	release1()
	release1()
	if g.saving("site-1") {
		t.Fatal("site-1 should be free after release")
	}
	if !g.saving("site-2") {
		t.Fatal("site-2 should still be saving")
	}
	release2()

	release, err := g.acquire("site-1")
	if err != nil {
		t.Fatalf("expected acquire to succeed after release: %v", err)
	}
	release()
}

func TestSaveGuard_UnsavedDocumentsShareOneSlot(t *testing.T) {
	var g saveGuard

	release, err := g.acquire("")
	if err != nil {
		t.Fatalf("expected acquire to succeed: %v", err)
	}
	defer release()
	if _, err := g.acquire(""); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected a second unsaved save to be refused, got %v", err)
	}
	if !g.saving("") {
		t.Fatal("expected the unsaved slot to be busy")
	}
}

func TestSaveGuard_WaitForSavesInFlight(t *testing.T) {
	var g saveGuard

	release, err := g.acquire("site-a")
	if err != nil {
		t.Fatalf("expected acquire to succeed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- g.wait(ctx)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait timed out")
	}
}

func TestSaveGuard_WaitHonoursContext(t *testing.T) {
	var g saveGuard
	release, err := g.acquire("site-a")
	if err != nil {
		t.Fatalf("expected acquire to succeed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestSaveGuard_WaitWithNothingInFlight(t *testing.T) {
	var g saveGuard
	if err := g.wait(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
