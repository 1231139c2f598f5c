package signature

import "testing"

func TestVerify_RoundTrip(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	const secret = "whsec_test"

	if !Verify(body, Sign(body, secret), secret) {
		t.Fatalf("Verify(body, Sign(body, secret), secret) = false; want true")
	}
}

func TestVerify_BodyMutation(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	const secret = "whsec_test"
	sig := Sign(body, secret)

	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		if Verify(mutated, sig, secret) {
			t.Fatalf("single-byte mutation at %d accepted", i)
		}
	}
}

func TestVerify_SignatureMutation(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	const secret = "whsec_test"
	sig := []byte(Sign(body, secret))

	for i := range sig {
		mutated := append([]byte(nil), sig...)
		// Flip within the base64 alphabet so length stays valid.
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == string(sig) {
			continue
		}
		if Verify(body, string(mutated), secret) {
			t.Fatalf("mutated signature at %d accepted", i)
		}
	}
}

func TestVerify_FailsClosed(t *testing.T) {
	body := []byte("payload")

	if Verify(body, Sign(body, "secret"), "") {
		t.Fatalf("empty secret must always verify false")
	}
	if Verify(body, "", "secret") {
		t.Fatalf("empty header must verify false")
	}
	if Verify(nil, "", "") {
		t.Fatalf("all-empty input must verify false")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte("payload")
	if Verify(body, Sign(body, "secret-a"), "secret-b") {
		t.Fatalf("signature under a different secret accepted")
	}
}
