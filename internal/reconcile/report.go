package reconcile

// ItemError records one isolated per-product failure inside a sweep.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Report aggregates the outcome of one sweep. Updated+Failed never exceeds
// Total; notification failures land in Errors without counting as Failed,
// since the price update itself already succeeded.
type Report struct {
	Total        int         `json:"total"`
	Updated      int         `json:"updated"`
	Failed       int         `json:"failed"`
	PriceChanges int         `json:"priceChanges"`
	AlertsSent   int         `json:"alertsSent"`
	Errors       []ItemError `json:"errors"`
}

func newReport(total int) *Report {
	return &Report{Total: total, Errors: []ItemError{}}
}

// fail marks a product as failed and records why.
func (r *Report) fail(id, msg string) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{ID: id, Error: msg})
}

// note records an error without counting the product as failed.
func (r *Report) note(id, msg string) {
	r.Errors = append(r.Errors, ItemError{ID: id, Error: msg})
}
