package wire

import "encoding/json"

// Response is the result of one wire call. Result carries the payload of a
// single-item call; Results and Errors carry the per-key outcomes of a
// batch call. A key present in neither map was dropped by the server.
type Response struct {
	Result  json.RawMessage
	Results map[string]json.RawMessage
	Errors  map[string]*Error
}

// NewResponse creates a single-item response
func NewResponse(result json.RawMessage) *Response {
	return &Response{Result: result}
}

// NewBatchResponse creates a batch response from per-key outcomes
func NewBatchResponse(results map[string]json.RawMessage, errs map[string]*Error) *Response {
	return &Response{Results: results, Errors: errs}
}

// ResultFor returns the payload for one item key of a batch response
func (r *Response) ResultFor(key string) (json.RawMessage, bool) {
	data, ok := r.Results[key]
	return data, ok
}

// ErrorFor returns the per-key error for one item key of a batch response
func (r *Response) ErrorFor(key string) (*Error, bool) {
	err, ok := r.Errors[key]
	return err, ok
}
