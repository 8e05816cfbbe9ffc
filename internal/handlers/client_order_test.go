package handlers

import (
	"encoding/json"
	"testing"

	"flowmarket/client"
)

func TestCreateOrderRequestDecodesSDKBody(t *testing.T) {
	body, err := json.Marshal(client.CreateOrderInput{
		Flower:            "rose",
		Color:             client.TextRef{Text: "red"},
		FlowerHeight:      "60cm",
		Quantity:          25,
		Decoration:        true,
		RecipientsAddress: "Abay 10",
		RecipientsPhone:   "+77001234567",
		FlowerData:        "no lilies please",
	})
	if err != nil {
		t.Fatalf("marshal order input: %v", err)
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("server-side decode failed: %v (body=%s)", err, body)
	}

	if req.Flower != "rose" {
		t.Fatalf("expected flower rose, got %q", req.Flower)
	}
	if req.Color.Text != "red" {
		t.Fatalf("expected color text red, got %q", req.Color.Text)
	}
	if req.FlowerHeight != "60cm" || req.Quantity != 25 || !req.Decoration {
		t.Fatalf("order fields lost in transit: %+v", req)
	}
	if req.RecipientsAddress != "Abay 10" || req.RecipientsPhone != "+77001234567" {
		t.Fatalf("recipient fields lost in transit: %+v", req)
	}
}
