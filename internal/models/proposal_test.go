package models

import (
	"testing"
	"time"
)

func TestProposalOpen(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	p := Proposal{ExpiresAt: &future}
	if !p.Open(now) {
		t.Fatal("expected unexpired proposal to be open")
	}

	p = Proposal{ExpiresAt: &past}
	if p.Open(now) {
		t.Fatal("expected expired proposal to be closed")
	}

	p = Proposal{IsAccepted: true, ExpiresAt: &future}
	if p.Open(now) {
		t.Fatal("expected accepted proposal to be closed")
	}

	p = Proposal{Rejected: true}
	if p.Open(now) {
		t.Fatal("expected rejected proposal to be closed")
	}

	p = Proposal{}
	if !p.Open(now) {
		t.Fatal("expected proposal without expiry to be open")
	}
}

func TestProposalExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	if !(Proposal{ExpiresAt: &past}).Expired(now) {
		t.Fatal("expected past expiry to count as expired")
	}
	if (Proposal{}).Expired(now) {
		t.Fatal("expected missing expiry to never expire")
	}
}
