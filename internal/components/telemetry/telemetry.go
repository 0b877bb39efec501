package telemetry

// API receives everything a component wants to surface about its own health. Extraction
// never fails loudly, so reports are the only record of markup the portal rendered
// unexpectedly.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a failure that needs fixing, a fetch that failed or a page
	// that could not be parsed at all.
	//
	// `id` names the failing component in lowercase, dots separate a component from its
	// operation and dashes join words (`client.fetch`, `extractor.row-id`). Details go
	// into params.
	ReportBroken(id string, params ...any)

	// ReportWarning reports markup that was handled with a default or a skip, a row
	// without an id or a module without attempts. Ids follow ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only useful while debugging.
	ReportDebug(msg string, params ...any)

	// ReportCount reports how many of something a single run produced, counts are
	// samples over time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, scopes nest from the outside in so
// NewScopedAPI("a", NewScopedAPI("b", api)) reports "b: a: id".
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) qualify(id string) string {
	return s.namespace + ": " + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.qualify(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.qualify(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.qualify(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.qualify(id), count)
}

// Fanout sends every report to each of apis in order.
type Fanout []API

func (f Fanout) ReportBroken(id string, params ...any) {
	for _, api := range f {
		api.ReportBroken(id, params...)
	}
}

func (f Fanout) ReportWarning(id string, params ...any) {
	for _, api := range f {
		api.ReportWarning(id, params...)
	}
}

func (f Fanout) ReportDebug(msg string, params ...any) {
	for _, api := range f {
		api.ReportDebug(msg, params...)
	}
}

func (f Fanout) ReportCount(id string, count int64) {
	for _, api := range f {
		api.ReportCount(id, count)
	}
}
