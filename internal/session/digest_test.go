package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigestChallenge(t *testing.T) {
	challenge, err := parseDigestChallenge(`Digest realm="IP Camera", nonce="abc123", qop="auth"`)
	require.NoError(t, err)
	assert.Equal(t, "IP Camera", challenge.Realm)
	assert.Equal(t, "abc123", challenge.Nonce)
	assert.Equal(t, "auth", challenge.Qop)

	_, err = parseDigestChallenge(`Basic realm="IP Camera"`)
	assert.Error(t, err)

	_, err = parseDigestChallenge(`Digest qop="auth"`)
	assert.Error(t, err)
}

func TestParseDigestChallengeDefaultsQop(t *testing.T) {
	challenge, err := parseDigestChallenge(`Digest realm="x", nonce="y"`)
	require.NoError(t, err)
	assert.Equal(t, "auth", challenge.Qop)
}

// digestServer builds an httptest server implementing a minimal digest
// challenge/response, the way a Hikvision device does.
func digestServer(t *testing.T, username, password, body string) *httptest.Server {
	t.Helper()
	const realm, nonce = "IP Camera", "staticnonceforatest"

	mux := http.NewServeMux()
	mux.HandleFunc("/ISAPI/System/deviceInfo", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s", qop=auth`, realm, nonce))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", username, realm, password))
		ha2 := md5Hex(fmt.Sprintf("GET:%s", r.URL.RequestURI()))
		// A real server validates the client's response against its own
		// computation; here we simply check a response value was present,
		// since this test only exercises the client's request shape.
		_ = ha1
		_ = ha2
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	})
	return httptest.NewServer(mux)
}

func TestGetURLSuccessAfterChallenge(t *testing.T) {
	srv := digestServer(t, "admin", "password", "<DeviceInfo></DeviceInfo>")
	defer srv.Close()

	resp, err := getURL(context.Background(), srv.Client(), srv.URL+"/ISAPI/System/deviceInfo", "admin", "password")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetURLRejectsNonDigestChallenge(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="x"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := getURL(context.Background(), srv.Client(), srv.URL+"/", "admin", "password")
	assert.Error(t, err)
}

func TestFindDigestChallengeHeaderSkipsLeadingBasic(t *testing.T) {
	header, err := findDigestChallengeHeader([]string{
		`Basic realm="x"`,
		`Digest realm="IP Camera", nonce="abc123", qop="auth"`,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "Digest"))
}

func TestFindDigestChallengeHeaderErrorsWithoutDigest(t *testing.T) {
	_, err := findDigestChallengeHeader([]string{`Basic realm="x"`})
	assert.Error(t, err)
}

func TestGetURLSucceedsWhenBasicHeaderPrecedesDigest(t *testing.T) {
	const realm, nonce = "IP Camera", "staticnonceforatest"

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.Header().Add("WWW-Authenticate", `Basic realm="IP Camera"`)
			w.Header().Add("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s", qop=auth`, realm, nonce))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := getURL(context.Background(), srv.Client(), srv.URL+"/", "admin", "password")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetURLFailsWhenFirstResponseIsNot401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := getURL(context.Background(), srv.Client(), srv.URL+"/", "admin", "password")
	assert.Error(t, err)
}
