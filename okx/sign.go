package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"okxbalance/types"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Sign returns base64(HMAC-SHA256(secret, timestamp+method+requestPath+body)).
func Sign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signRequest(req *http.Request, creds types.Credentials, now time.Time) {
	ts := now.UTC().Format(timestampLayout)
	path := req.URL.RequestURI()

	req.Header.Set("OK-ACCESS-KEY", creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", Sign(creds.SecretKey, ts, req.Method, path, ""))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", creds.Passphrase)
}
