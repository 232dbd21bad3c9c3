package models

import "testing"

func TestOrderStatusIsAcceptable(t *testing.T) {
	acceptable := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing}
	for _, s := range acceptable {
		if !s.IsAcceptable() {
			t.Fatalf("%s should be acceptable", s)
		}
	}
	rejected := []OrderStatus{OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatus("bogus")}
	for _, s := range rejected {
		if s.IsAcceptable() {
			t.Fatalf("%s should not be acceptable", s)
		}
	}
}

func TestDeliveryInfoHasCoordinates(t *testing.T) {
	lat, lng := -33.9249, 18.4241

	if (DeliveryInfo{}).HasCoordinates() {
		t.Fatal("empty delivery info should not have coordinates")
	}
	if (DeliveryInfo{Latitude: &lat}).HasCoordinates() {
		t.Fatal("latitude alone should not count as geocoded")
	}
	if !(DeliveryInfo{Latitude: &lat, Longitude: &lng}).HasCoordinates() {
		t.Fatal("expected coordinates to be detected")
	}
}
