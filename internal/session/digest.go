// Package session owns the per-camera HTTP conversation with a Hikvision
// device: digest authentication, the three plain ISAPI GETs (deviceInfo,
// triggers, alertStream), and the multipart stream that follows, grounded
// on the CornerBit HikSink original's hikapi::camera::Camera and on
// internal/drivers/hikvision.go's doDigest helper for the Go idiom.
package session

import (
	"context"
	"crypto/md5"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// digestChallenge is the parsed contents of a WWW-Authenticate: Digest
// header.
type digestChallenge struct {
	Realm string
	Nonce string
	Qop   string
}

var digestParamRx = regexp.MustCompile(`(\w+)="([^"]+)"`)

func parseDigestChallenge(header string) (*digestChallenge, error) {
	if !strings.HasPrefix(strings.ToLower(header), "digest ") {
		return nil, fmt.Errorf("WWW-Authenticate is not Digest: %s", header)
	}
	header = strings.TrimSpace(header[len("Digest "):])

	challenge := &digestChallenge{}
	for _, kv := range digestParamRx.FindAllStringSubmatch(header, -1) {
		switch strings.ToLower(kv[1]) {
		case "realm":
			challenge.Realm = kv[2]
		case "nonce":
			challenge.Nonce = kv[2]
		case "qop":
			challenge.Qop = kv[2]
		}
	}
	if challenge.Realm == "" || challenge.Nonce == "" {
		return nil, fmt.Errorf("realm/nonce missing from WWW-Authenticate: %s", header)
	}
	if challenge.Qop == "" {
		challenge.Qop = "auth"
	}
	return challenge, nil
}

// findDigestChallengeHeader scans every WWW-Authenticate header value (a
// server or proxy may send several as separate header lines, one per
// scheme) for the first one offering Digest, mirroring the original's
// headers().get_all(WWW_AUTHENTICATE).iter().find(|h| h.starts_with("Digest")).
func findDigestChallengeHeader(values []string) (string, error) {
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), "digest") {
			return v, nil
		}
	}
	return "", fmt.Errorf("no Digest challenge in WWW-Authenticate headers: %v", values)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		return "", fmt.Errorf("generating cnonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// getURL performs the two-phase digest exchange described in RFC 7616: an
// unauthenticated GET to harvest the challenge, then a second GET carrying
// the computed Authorization header. Mirrors the original's get_url, which
// treats anything but a 401 on the first response as the camera refusing
// to challenge at all.
func getURL(ctx context.Context, client *http.Client, rawURL, username, password string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to camera: %w", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		resp.Body.Close()
		return nil, fmt.Errorf("could not get digest from server, status code: %d", resp.StatusCode)
	}

	authHeader, err := findDigestChallengeHeader(resp.Header.Values("WWW-Authenticate"))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	challenge, err := parseDigestChallenge(authHeader)
	if err != nil {
		return nil, fmt.Errorf("digest from camera could not be parsed: %w", err)
	}

	cnonce, err := randomHex(8)
	if err != nil {
		return nil, err
	}
	const nc = "00000001"
	ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", username, challenge.Realm, password))
	ha2 := md5Hex(fmt.Sprintf("%s:%s", http.MethodGet, u.RequestURI()))
	response := md5Hex(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, challenge.Nonce, nc, cnonce, challenge.Qop, ha2))

	authValue := fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", algorithm=MD5, response="%s", qop=%s, nc=%s, cnonce="%s"`,
		username, challenge.Realm, challenge.Nonce, u.RequestURI(), response, challenge.Qop, nc, cnonce,
	)

	req2, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req2.Header.Set("Authorization", authValue)

	resp2, err := client.Do(req2)
	if err != nil {
		return nil, fmt.Errorf("connecting to camera: %w", err)
	}
	switch resp2.StatusCode {
	case http.StatusUnauthorized:
		resp2.Body.Close()
		return nil, fmt.Errorf("username or password incorrect")
	case http.StatusForbidden:
		resp2.Body.Close()
		return nil, fmt.Errorf("user does not have correct permissions, ensure 'Notify Surveillance Center' is granted")
	case http.StatusOK:
		return resp2, nil
	default:
		resp2.Body.Close()
		return nil, fmt.Errorf("invalid status code after auth token sent: %d", resp2.StatusCode)
	}
}
