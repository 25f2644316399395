package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	secret := "channel-secret"

	if !ValidateSignature(secret, body, sign(secret, body)) {
		t.Fatalf("expected valid signature to pass")
	}
	if ValidateSignature(secret, body, sign("other-secret", body)) {
		t.Fatalf("expected wrong secret to fail")
	}
	if ValidateSignature(secret, []byte(`tampered`), sign(secret, body)) {
		t.Fatalf("expected tampered body to fail")
	}
	if ValidateSignature(secret, body, "not-base64!!") {
		t.Fatalf("expected malformed signature to fail")
	}
}
