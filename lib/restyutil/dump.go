package restyutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Dump writes every response the client receives to output as two files sharing a
// numbered prefix: <n>-<path>.http holds the whole exchange and <n>-<path>.html the raw
// response body.
func Dump(client *resty.Client, output Output) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&counter, 1)
		prefix := fmt.Sprintf("%03d-%s", id, pathSlug(res.Request.URL))

		err := output.Write(prefix+".http", []byte(formatExchange(res)))
		if err != nil {
			slog.Warn("failed to write exchange", "name", prefix, "err", err)
		}
		err = output.Write(prefix+".html", res.Body())
		if err != nil {
			slog.Warn("failed to write response body", "name", prefix, "err", err)
		}
		return nil
	})
}

// pathSlug turns the path of a request url into a file name fragment.
func pathSlug(rawUrl string) string {
	path := rawUrl
	if parsed, err := url.Parse(rawUrl); err == nil {
		path = parsed.Path
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "index"
	}
	return strings.ReplaceAll(path, "/", "_")
}

// formatExchange renders the request line, headers and body followed by the response
// status, headers and body, separated by blank lines.
func formatExchange(res *resty.Response) string {
	var out strings.Builder
	section := func(parts ...string) {
		for _, part := range parts {
			out.WriteString(part)
			out.WriteString("\n\n")
		}
	}

	out.WriteString("---- REQUEST ----\n\n")
	section(res.Request.Method + " " + res.Request.URL)
	if raw := res.Request.RawRequest; raw != nil {
		section(formatHeaders(raw.Header), requestBody(raw))
	}

	responseUrl := res.Request.URL
	if res.RawResponse != nil {
		if location, err := res.RawResponse.Location(); err == nil {
			responseUrl = location.String()
		}
	}
	out.WriteString("---- RESPONSE ----\n\n")
	section(strconv.Itoa(res.StatusCode())+" "+responseUrl, formatHeaders(res.Header()))
	out.WriteString(res.String())

	return out.String()
}

// formatHeaders renders one "Key: Value" line per value, sorted by key.
func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, k+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

// requestBody reads a replayable copy of the body, GET requests have none.
func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return "unreadable body: " + err.Error()
	}
	// resty installs a GetBody returning (nil, nil) on requests without a body
	if body == nil {
		return ""
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return "unreadable body: " + err.Error()
	}
	return string(contents)
}
