package services

import (
	"strings"
	"testing"
)

func TestClassifyQRPayloadOrderURL(t *testing.T) {
	kind, value := ClassifyQRPayload("https://jeffy.co.za/admin/orders?orderId=3f2c6a1e-9b7d-4c21-8f5e-2a1b3c4d5e6f")
	if kind != QRPayloadOrder {
		t.Fatalf("expected order kind, got %s", kind)
	}
	if value != "3f2c6a1e-9b7d-4c21-8f5e-2a1b3c4d5e6f" {
		t.Fatalf("expected extracted order id, got %q", value)
	}
}

func TestClassifyQRPayloadBareUUID(t *testing.T) {
	kind, value := ClassifyQRPayload("3F2C6A1E-9B7D-4C21-8F5E-2A1B3C4D5E6F")
	if kind != QRPayloadOrder {
		t.Fatalf("expected order kind for bare uuid, got %s", kind)
	}
	if value != "3f2c6a1e-9b7d-4c21-8f5e-2a1b3c4d5e6f" {
		t.Fatalf("expected lowercased uuid, got %q", value)
	}
}

func TestClassifyQRPayloadProofToken(t *testing.T) {
	token := "JEFFY-1756710000000-abc123def456"
	kind, value := ClassifyQRPayload(token)
	if kind != QRPayloadProofToken {
		t.Fatalf("expected proof_token kind, got %s", kind)
	}
	if value != token {
		t.Fatalf("expected token passed through, got %q", value)
	}
}

func TestClassifyQRPayloadTrimsWhitespace(t *testing.T) {
	kind, _ := ClassifyQRPayload("  JEFFY-1756710000000-abc123def456\n")
	if kind != QRPayloadProofToken {
		t.Fatalf("expected proof_token kind after trimming, got %s", kind)
	}
}

func TestClassifyQRPayloadUnknown(t *testing.T) {
	payloads := []string{
		"",
		"hello world",
		"https://jeffy.co.za/admin/orders",
		"https://example.com/?id=123",
		"not-a-uuid-at-all",
	}
	for _, p := range payloads {
		kind, value := ClassifyQRPayload(p)
		if kind != QRPayloadUnknown || value != "" {
			t.Fatalf("expected unknown for %q, got %s %q", p, kind, value)
		}
	}
}

func TestGenerateProofToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := GenerateProofToken()
		if !strings.HasPrefix(token, ProofTokenPrefix) {
			t.Fatalf("token missing prefix: %q", token)
		}
		if kind, _ := ClassifyQRPayload(token); kind != QRPayloadProofToken {
			t.Fatalf("generated token not classified as proof_token: %q", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %q", token)
		}
		seen[token] = true
	}
}
