package handlers

import (
	"testing"
	"time"

	"flowmarket/internal/models"
)

func TestStoreEntryRelevantAcceptedFollowsOrder(t *testing.T) {
	now := time.Now()
	proposal := models.Proposal{IsAccepted: true}

	for _, status := range []string{models.StatusAccepted, models.StatusInTransit} {
		if !storeEntryRelevant(proposal, models.Order{Status: status}, now) {
			t.Fatalf("expected accepted proposal on %s order to be relevant", status)
		}
	}
	for _, status := range []string{models.StatusCompleted, models.StatusCanceled} {
		if storeEntryRelevant(proposal, models.Order{Status: status}, now) {
			t.Fatalf("expected accepted proposal on %s order to be settled", status)
		}
	}
}

func TestStoreEntryRelevantOpenProposal(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	open := models.Proposal{ExpiresAt: &future}
	if !storeEntryRelevant(open, models.Order{Status: models.StatusPending}, now) {
		t.Fatal("expected open proposal on pending order to be relevant")
	}
	if storeEntryRelevant(open, models.Order{Status: models.StatusCanceled}, now) {
		t.Fatal("expected open proposal on canceled order to be settled")
	}

	expired := models.Proposal{ExpiresAt: &past}
	if storeEntryRelevant(expired, models.Order{Status: models.StatusPending}, now) {
		t.Fatal("expected expired proposal to be settled")
	}

	rejected := models.Proposal{Rejected: true}
	if storeEntryRelevant(rejected, models.Order{Status: models.StatusPending}, now) {
		t.Fatal("expected rejected proposal to be settled")
	}
}
