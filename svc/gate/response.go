package gate

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jobbyai/planguard/pkg/entitlement"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc handles a request and returns the response to render.
type HandlerFunc func(r *http.Request) Response

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

type jsonResponse struct {
	status int
	body   envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON is a successful envelope carrying data.
func JSON(status int, data any) Response {
	return jsonResponse{status: status, body: envelope{Success: true, Data: data}}
}

// Fail renders err as an error envelope.
func Fail(err error) Response {
	e := toHTTPError(err)
	return jsonResponse{status: e.Status, body: envelope{Error: e.Message, Code: e.Code}}
}

// Usage headers mirror the decision on both allowed and denied responses.
const (
	HeaderUsageLimit     = "X-Usage-Limit"
	HeaderUsageRemaining = "X-Usage-Remaining"
	HeaderUsageUsed      = "X-Usage-Used"
)

func setUsageHeaders(w http.ResponseWriter, res *entitlement.Result) {
	w.Header().Set(HeaderUsageLimit, res.Limit.String())
	w.Header().Set(HeaderUsageRemaining, res.Remaining.String())
	w.Header().Set(HeaderUsageUsed, strconv.FormatInt(res.Used, 10))
}
