package campusdual

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"campusdual-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func certificatePEM(server *httptest.Server) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: server.Certificate().Raw,
	}))
}

func newPortal(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClientFetchesWithSessionCookie(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("MYSAPSSO2")
		if err != nil || cookie.Value != "session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case gradesPath:
			w.Write([]byte(gradesPage))
		case signupPath:
			w.Write([]byte(signupPage))
		case signoffPath:
			w.Write([]byte(signoffPage))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	recorder := telemetry.NewRecorder()
	client, err := NewClient(ClientOptions{
		BaseUrl:           portal.URL,
		RootCertPEM:       certificatePEM(portal),
		Cookie:            `{"name":"MYSAPSSO2","value":"session-token"}`,
		RequestsPerSecond: 100,
	}, recorder)
	require.NoError(t, err)

	ctx := context.Background()

	grades, err := client.Grades(ctx)
	require.NoError(t, err)
	require.Len(t, grades, 4)

	signup, err := client.SignupOptions(ctx)
	require.NoError(t, err)
	require.Len(t, signup, 3)

	signoff, err := client.SignoffOptions(ctx)
	require.NoError(t, err)
	require.Len(t, signoff, 2)

	require.Len(t, recorder.Filter(telemetry.KindDebug, "campusdual_client: resty.request"), 3)
	require.Empty(t, recorder.Filter(telemetry.KindBroken, "campusdual_client: client.fetch"))

	overview, err := client.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, grades, overview.Grades)
	require.Equal(t, signup, overview.Signup)
	require.Equal(t, signoff, overview.Signoff)
}

func TestClientOverviewFailsWithAnyPage(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == signoffPath {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(gradesPage))
	})

	client, err := NewClient(ClientOptions{
		BaseUrl:           portal.URL,
		RootCertPEM:       certificatePEM(portal),
		RequestsPerSecond: 100,
	}, telemetry.NewRecorder())
	require.NoError(t, err)

	overview, err := client.Overview(context.Background())
	require.ErrorContains(t, err, "403")
	require.Empty(t, overview.Grades)
}

func TestClientWithoutCookieIsRejected(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("MYSAPSSO2"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(gradesPage))
	})

	recorder := telemetry.NewRecorder()
	client, err := NewClient(ClientOptions{
		BaseUrl:     portal.URL,
		RootCertPEM: certificatePEM(portal),
	}, recorder)
	require.NoError(t, err)

	_, err = client.Grades(context.Background())
	require.ErrorContains(t, err, "401")
	require.Len(t, recorder.Filter(telemetry.KindBroken, "campusdual_client: client.fetch"), 1)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	table := []struct {
		name     string
		retry    bool
		failures int32
		status   int
		calls    int32
		ok       bool
	}{
		{name: "no retry", retry: false, failures: 1, status: http.StatusServiceUnavailable, calls: 1, ok: false},
		{name: "recovers after two failures", retry: true, failures: 2, status: http.StatusServiceUnavailable, calls: 3, ok: true},
		{name: "rate limited", retry: true, failures: 1, status: http.StatusTooManyRequests, calls: 2, ok: true},
		{name: "gives up after two retries", retry: true, failures: 5, status: http.StatusBadGateway, calls: 3, ok: false},
		{name: "client errors are not retried", retry: true, failures: 5, status: http.StatusNotFound, calls: 1, ok: false},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			var calls atomic.Int32
			portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= test.failures {
					w.WriteHeader(test.status)
					return
				}
				w.Write([]byte(signupPage))
			})

			client, err := NewClient(ClientOptions{
				BaseUrl:           portal.URL,
				RootCertPEM:       certificatePEM(portal),
				Retry:             test.retry,
				RequestsPerSecond: 100,
			}, telemetry.NewRecorder())
			require.NoError(t, err)

			options, err := client.SignupOptions(context.Background())
			require.Equal(t, test.calls, calls.Load())
			if !test.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, options, 3)
		})
	}
}

// unrelatedRootPEM generates a self-signed root that did not sign the test server's certificate.
func unrelatedRootPEM(t *testing.T) string {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "unrelated root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestClientTrustsOnlyPinnedRoot(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(gradesPage))
	})

	client, err := NewClient(ClientOptions{
		BaseUrl:     portal.URL,
		RootCertPEM: unrelatedRootPEM(t),
	}, telemetry.NewRecorder())
	require.NoError(t, err)

	_, err = client.Grades(context.Background())
	require.Error(t, err)
}

func TestNewClientRejectsMalformedCookie(t *testing.T) {
	for _, cookie := range []string{`{"name":`, `{"value":"x"}`} {
		_, err := NewClient(ClientOptions{
			RootCertPEM: "pem",
			Cookie:      cookie,
		}, telemetry.NewRecorder())
		require.Error(t, err, cookie)
	}
}

func TestDecodeSessionCookie(t *testing.T) {
	testCases := []struct {
		name       string
		serialized string
		expected   *http.Cookie
	}{
		{
			name:       "session cookie",
			serialized: `{"name":"MYSAPSSO2","value":"token"}`,
			expected:   &http.Cookie{Name: "MYSAPSSO2", Value: "token", Path: "/"},
		},
		{
			name:       "session cookie with domain and path",
			serialized: `{"name":"MYSAPSSO2","value":"token","domain":"campus-dual.de","path":"/sap"}`,
			expected:   &http.Cookie{Name: "MYSAPSSO2", Value: "token", Domain: "campus-dual.de", Path: "/sap"},
		},
		{
			name:       "stored cookie",
			serialized: `{"raw_cookie":"MYSAPSSO2=token; Path=/; Domain=campus-dual.de","path":["/",true],"domain":{"Suffix":"campus-dual.de"},"expires":"SessionEnd"}`,
			expected:   &http.Cookie{Name: "MYSAPSSO2", Value: "token", Domain: "campus-dual.de", Path: "/"},
		},
		{
			name:       "stored cookie without attributes",
			serialized: `{"raw_cookie":"MYSAPSSO2=token","path":["/",false],"domain":"Empty","expires":"SessionEnd"}`,
			expected:   &http.Cookie{Name: "MYSAPSSO2", Value: "token", Path: "/"},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cookie, err := decodeSessionCookie(test.serialized)
			require.NoError(t, err)
			require.Equal(t, test.expected.Name, cookie.Name)
			require.Equal(t, test.expected.Value, cookie.Value)
			require.Equal(t, test.expected.Domain, cookie.Domain)
			require.Equal(t, test.expected.Path, cookie.Path)
		})
	}

	_, err := decodeSessionCookie(`{"raw_cookie":"; Path=/"}`)
	require.ErrorContains(t, err, "invalid raw cookie")
}

func TestClientFetchesWithStoredCookie(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("MYSAPSSO2")
		if err != nil || cookie.Value != "session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(gradesPage))
	})

	client, err := NewClient(ClientOptions{
		BaseUrl:           portal.URL,
		RootCertPEM:       certificatePEM(portal),
		Cookie:            `{"raw_cookie":"MYSAPSSO2=session-token; Path=/","path":["/",true],"domain":"Empty","expires":"SessionEnd"}`,
		RequestsPerSecond: 100,
	}, telemetry.NewRecorder())
	require.NoError(t, err)

	grades, err := client.Grades(context.Background())
	require.NoError(t, err)
	require.Len(t, grades, 4)
}

type pageOutput map[string][]byte

func (o pageOutput) Write(name string, contents []byte) error {
	o[name] = contents
	return nil
}

func TestClientDumpsFetchedPages(t *testing.T) {
	portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(signoffPage))
	})

	output := pageOutput{}
	client, err := NewClient(ClientOptions{
		BaseUrl:     portal.URL,
		RootCertPEM: certificatePEM(portal),
		Dump:        output,
	}, telemetry.NewRecorder())
	require.NoError(t, err)

	_, err = client.SignoffOptions(context.Background())
	require.NoError(t, err)

	require.Equal(t, signoffPage, string(output["001-acwork_exopen.html"]))
	require.Contains(t, output, "001-acwork_exopen.http")
}
