package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks the gateway's x-signature header against the request.
// The header carries "ts=<unix>,v1=<hex>" where v1 is the HMAC-SHA256 of the
// manifest "id:<dataID>;request-id:<requestID>;ts:<ts>;" under the webhook
// secret. dataID is lowercased before signing, per the gateway's scheme.
func VerifySignature(secret, signatureHeader, requestID, dataID string) error {
	if signatureHeader == "" {
		return ErrInvalidSignature
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignManifest produces the v1 value for a manifest. Exposed for webhook
// simulation tooling and tests.
func SignManifest(secret, requestID, dataID, ts string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}
