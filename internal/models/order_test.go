package models

import "testing"

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusCanceled} {
		if !IsTerminal(status) {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []string{StatusPending, StatusAccepted, StatusInTransit} {
		if IsTerminal(status) {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestCanCancelOnlyBeforeTransit(t *testing.T) {
	if !CanCancel(StatusPending) || !CanCancel(StatusAccepted) {
		t.Fatal("expected pending and accepted orders to be cancelable")
	}
	for _, status := range []string{StatusInTransit, StatusCompleted, StatusCanceled} {
		if CanCancel(status) {
			t.Fatalf("expected %s order to be non-cancelable", status)
		}
	}
}

func TestStoreAdvanceAllowed(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusAccepted, StatusInTransit},
		{StatusAccepted, StatusCompleted},
		{StatusInTransit, StatusCompleted},
	}
	for _, tc := range allowed {
		if !StoreAdvanceAllowed(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{StatusPending, StatusAccepted},
		{StatusPending, StatusInTransit},
		{StatusAccepted, StatusPending},
		{StatusInTransit, StatusAccepted},
		{StatusCompleted, StatusInTransit},
		{StatusCanceled, StatusCompleted},
		{StatusAccepted, StatusCanceled},
	}
	for _, tc := range denied {
		if StoreAdvanceAllowed(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestKnownStatus(t *testing.T) {
	for _, status := range []string{StatusPending, StatusAccepted, StatusInTransit, StatusCompleted, StatusCanceled} {
		if !KnownStatus(status) {
			t.Fatalf("expected %s to be known", status)
		}
	}
	if KnownStatus("shipped") {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestOrderIsActive(t *testing.T) {
	order := Order{Status: StatusAccepted}
	if !order.IsActive() {
		t.Fatal("expected accepted order to be active")
	}
	order.Status = StatusCanceled
	if order.IsActive() {
		t.Fatal("expected canceled order to be inactive")
	}
}
