package restyutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex sync.Mutex
	files map[string][]byte
}

func (o *memoryOutput) Write(name string, contents []byte) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.files[name] = contents
	return nil
}

func TestDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal", "test")
		w.Write([]byte("<table id=\"acwork\"></table>"))
	}))
	defer server.Close()

	output := &memoryOutput{files: map[string][]byte{}}
	client := resty.New().SetBaseURL(server.URL)
	Dump(client, output)

	_, err := client.R().Get("/acwork/index")
	require.NoError(t, err)
	_, err = client.R().Get("/acwork/expproc?lang=de")
	require.NoError(t, err)

	require.Len(t, output.files, 4)
	require.Equal(t, "<table id=\"acwork\"></table>", string(output.files["001-acwork_index.html"]))
	require.Contains(t, output.files, "002-acwork_expproc.html")

	exchange := string(output.files["001-acwork_index.http"])
	require.Contains(t, exchange, "GET "+server.URL+"/acwork/index")
	require.Contains(t, exchange, "200 ")
	require.Contains(t, exchange, "X-Portal: test")
}

func TestPathSlug(t *testing.T) {
	table := []struct {
		url      string
		expected string
	}{
		{url: "https://selfservice.campus-dual.de/acwork/index", expected: "acwork_index"},
		{url: "https://selfservice.campus-dual.de/acwork/exopen?x=1", expected: "acwork_exopen"},
		{url: "https://selfservice.campus-dual.de", expected: "index"},
		{url: "https://selfservice.campus-dual.de/", expected: "index"},
		{url: "/acwork/expproc/", expected: "acwork_expproc"},
	}
	for _, test := range table {
		require.Equal(t, test.expected, pathSlug(test.url), test.url)
	}
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(t, "A: 1\nA: 2\nB: 3", formatHeaders(http.Header{"B": {"3"}, "A": {"1", "2"}}))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	require.NoError(t, output.Write("001-acwork_index.html", []byte("page")))
	contents, err := os.ReadFile(filepath.Join(dir, "001-acwork_index.html"))
	require.NoError(t, err)
	require.Equal(t, "page", string(contents))
}

func TestRequestBody(t *testing.T) {
	table := []struct {
		name     string
		getBody  func() (io.ReadCloser, error)
		expected string
	}{
		{name: "no GetBody", expected: ""},
		{
			name:     "nil body",
			getBody:  func() (io.ReadCloser, error) { return nil, nil },
			expected: "",
		},
		{
			name: "form body",
			getBody: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("evob_objid=E100")), nil
			},
			expected: "evob_objid=E100",
		},
	}
	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "https://selfservice.campus-dual.de/acwork/index", nil)
			require.NoError(t, err)
			req.GetBody = test.getBody
			require.Equal(t, test.expected, requestBody(req))
		})
	}
}

func TestDumpWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	output := &memoryOutput{files: map[string][]byte{}}
	client := resty.New().SetBaseURL(server.URL)
	Dump(client, output)

	_, err := client.R().SetBody("evob_objid=E100").Post("/acwork/booking")
	require.NoError(t, err)
	require.Contains(t, string(output.files["001-acwork_booking.http"]), "evob_objid=E100")
}
