package events_test

import (
	"testing"

	"github.com/ardanlabs/msgpool/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen subscribers filter by prefix.", testID)
		{
			evts := events.New()

			all := evts.Acquire("all", "")
			viewer := evts.Acquire("viewer", "viewer:")

			evts.Send("state: selectMessages: tipset[0]")
			evts.Send("viewer: block: blk[1]")

			if len(all) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould deliver every event without a prefix, got %d.", failed, testID, len(all))
			}
			t.Logf("\t%s\tTest %d:\tShould deliver every event without a prefix.", success, testID)

			if len(viewer) != 1 || <-viewer != "viewer: block: blk[1]" {
				t.Fatalf("\t%s\tTest %d:\tShould deliver only the matching events.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver only the matching events.", success, testID)

			if err := evts.Release("viewer"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a subscriber: %s", failed, testID, err)
			}
			if err := evts.Release("viewer"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release a subscriber twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould release a subscriber once.", success, testID)

			for range 200 {
				evts.Send("viewer: flood")
			}
			if len(all) != cap(all) {
				t.Fatalf("\t%s\tTest %d:\tShould drop events for a slow subscriber.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drop events for a slow subscriber.", success, testID)

			evts.Shutdown()
			if evts.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove all subscribers on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove all subscribers on shutdown.", success, testID)
		}
	}
}
