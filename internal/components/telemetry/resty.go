package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
	report_resty_error    = "resty.error"
)

// requestKey carries the requestInfo of a request through its context.
type requestKey struct{}

type requestInfo struct {
	id uint64
	// measured with the monotonic clock, chrono is only needed for wall clock time
	started time.Time
}

type restyReporter struct {
	tel  API
	next atomic.Uint64
}

// InstrumentResty reports each request the client sends as a debug report, with a
// matching debug report for its response or a broken report for its transport error.
// Reports of one request share a sequence number as their first param.
func InstrumentResty(client *resty.Client, tel API) {
	r := &restyReporter{tel: tel}
	client.OnBeforeRequest(r.before)
	client.OnAfterResponse(r.after)
	client.OnError(r.failed)
}

func (r *restyReporter) before(_ *resty.Client, req *resty.Request) error {
	info := requestInfo{id: r.next.Add(1), started: time.Now()}
	r.tel.ReportDebug(report_resty_request, info.id, req.Method, req.URL)
	req.SetContext(context.WithValue(req.Context(), requestKey{}, info))
	return nil
}

func (r *restyReporter) after(_ *resty.Client, res *resty.Response) error {
	info, ok := res.Request.Context().Value(requestKey{}).(requestInfo)
	if !ok {
		r.tel.ReportDebug(report_resty_response, uint64(0), res.Status(), len(res.Body()))
		return nil
	}
	r.tel.ReportDebug(
		report_resty_response,
		info.id,
		res.Status(),
		len(res.Body()),
		time.Since(info.started).String(),
	)
	return nil
}

func (r *restyReporter) failed(req *resty.Request, err error) {
	info, _ := req.Context().Value(requestKey{}).(requestInfo)
	var elapsed time.Duration
	if !info.started.IsZero() {
		elapsed = time.Since(info.started)
	}
	r.tel.ReportBroken(report_resty_error, info.id, req.Method, req.URL, err, elapsed.String())
}
