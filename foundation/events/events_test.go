package events_test

import (
	"testing"

	"github.com/ardanlabs/minichain/foundation/events"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	id1, ch1 := evts.Acquire()
	id2, ch2 := evts.Acquire()

	if id1 == id2 {
		t.Fatalf("Should get back unique ids.")
	}

	if evts.Count() != 2 {
		t.Fatalf("Should have two receivers, got %d.", evts.Count())
	}

	evts.Send("viewer: block")

	for _, ch := range []<-chan string{ch1, ch2} {
		if msg := <-ch; msg != "viewer: block" {
			t.Fatalf("Should receive the message, got %q.", msg)
		}
	}

	if err := evts.Release(id1); err != nil {
		t.Fatalf("Should be able to release a receiver: %s", err)
	}

	if _, open := <-ch1; open {
		t.Fatalf("Should close the channel on release.")
	}

	if err := evts.Release(id1); err == nil {
		t.Fatalf("Should not release a receiver twice.")
	}

	evts.Shutdown()

	if _, open := <-ch2; open {
		t.Fatalf("Should close every channel on shutdown.")
	}

	if evts.Count() != 0 {
		t.Fatalf("Should have no receivers after shutdown.")
	}
}
