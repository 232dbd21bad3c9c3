package services

import (
	"net/url"
	"regexp"
	"strings"
)

// QRPayloadKind identifies which state-machine entry point a scanned code
// routes to
type QRPayloadKind string

const (
	// QRPayloadOrder is an order QR: a URL with an orderId query parameter
	// or a raw UUID. Drives the assignment state machine.
	QRPayloadOrder QRPayloadKind = "order"
	// QRPayloadProofToken is a driver-issued proof-of-delivery token.
	// Completes the receiver notification.
	QRPayloadProofToken QRPayloadKind = "proof_token"
	// QRPayloadUnknown is anything else
	QRPayloadUnknown QRPayloadKind = "unknown"
)

// ProofTokenPrefix is the fixed namespace prefix on proof-of-delivery tokens
const ProofTokenPrefix = "JEFFY-"

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ClassifyQRPayload resolves a scanned QR payload to its kind and value.
//
// Order QR codes printed by the shop are URLs like
// https://jeffy.co.za/admin/orders?orderId=ORDER_ID; some older labels carry
// the bare order UUID. Proof-of-delivery tokens are generated by this backend
// with the JEFFY- prefix.
func ClassifyQRPayload(payload string) (QRPayloadKind, string) {
	payload = strings.TrimSpace(payload)

	if strings.HasPrefix(payload, ProofTokenPrefix) {
		return QRPayloadProofToken, payload
	}

	if u, err := url.Parse(payload); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if orderID := u.Query().Get("orderId"); orderID != "" {
			return QRPayloadOrder, orderID
		}
		return QRPayloadUnknown, ""
	}

	if uuidPattern.MatchString(strings.ToLower(payload)) {
		return QRPayloadOrder, strings.ToLower(payload)
	}

	return QRPayloadUnknown, ""
}
