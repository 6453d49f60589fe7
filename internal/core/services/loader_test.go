package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestModelLoader_LoadsOnce(t *testing.T) {
	det := &mockDetector{}
	l := NewModelLoader(det, time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if det.loadCalls() != 1 {
		t.Fatalf("LoadModels called %d times", det.loadCalls())
	}
	if status, err := l.Status(); status != LoadReady || err != nil {
		t.Fatalf("status: %s %v", status, err)
	}
}

func TestModelLoader_FailureIsPermanent(t *testing.T) {
	loadErr := errors.New("model missing")
	det := &mockDetector{loadErr: loadErr}
	l := NewModelLoader(det, time.Second, nil)

	if err := l.Load(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	det.loadErr = nil
	if err := l.Load(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("expected sticky load error, got %v", err)
	}
	if det.loadCalls() != 1 {
		t.Fatalf("LoadModels retried")
	}
	if status, _ := l.Status(); status != LoadFailed {
		t.Fatalf("status: got %s", status)
	}
}

func TestModelLoader_WaitHonoursContext(t *testing.T) {
	l := NewModelLoader(&mockDetector{}, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if status, _ := l.Status(); status != LoadPending {
		t.Fatalf("status: got %s", status)
	}
}

func TestModelLoader_Start(t *testing.T) {
	l := NewModelLoader(&mockDetector{}, time.Second, nil)
	l.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
