package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Issues alternate between reminders that must fire and reminders that get
// cancelled while other goroutines are still scheduling.
func TestEngineStressScheduleAndCancel(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 200
	const cancelledKeys = 20

	now := time.Now().UTC()
	var wg sync.WaitGroup
	var scheduledFiring, scheduledCancelled, removed int64

	stopCancel := make(chan struct{})
	cancelDone := make(chan struct{})
	go func() {
		defer close(cancelDone)
		for {
			select {
			case <-stopCancel:
				return
			default:
			}
			for k := 0; k < cancelledKeys; k++ {
				atomic.AddInt64(&removed, int64(engine.Cancel(fmt.Sprintf("dropped-%d", k))))
			}
		}
	}()

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := ReminderEvent{ID: fmt.Sprintf("w%d-%d", w, i), Title: "Reminder"}
				if i%2 == 0 {
					ev.Key = fmt.Sprintf("issue-%d", i)
					ev.TriggerAt = now.Add(time.Duration((w+i)%50+10) * time.Millisecond)
					atomic.AddInt64(&scheduledFiring, 1)
				} else {
					ev.Key = fmt.Sprintf("dropped-%d", i%cancelledKeys)
					ev.TriggerAt = now.Add(time.Hour)
					atomic.AddInt64(&scheduledCancelled, 1)
				}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(stopCancel)
	<-cancelDone

	for k := 0; k < cancelledKeys; k++ {
		key := fmt.Sprintf("dropped-%d", k)
		removed += int64(engine.Cancel(key))
		if pending := engine.Pending(key); len(pending) != 0 {
			t.Fatalf("key %s still has %d pending reminders", key, len(pending))
		}
	}
	if removed != scheduledCancelled {
		t.Fatalf("cancel removed %d reminders, scheduled %d", removed, scheduledCancelled)
	}

	deadline := time.After(5 * time.Second)
	var received int64
	for received < scheduledFiring {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d total=%d dropped=%d", received, scheduledFiring, engine.Dropped())
		case ev := <-engine.C():
			if strings.HasPrefix(ev.Key, "dropped-") {
				t.Fatalf("cancelled reminder fired: %+v", ev)
			}
			received++
		}
	}

	select {
	case ev := <-engine.C():
		t.Fatalf("unexpected extra reminder: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
