// Package gate is the HTTP surface of planguard. It meters the JobbyAI
// actions behind RequireQuota, reports usage and plans, accepts Paddle
// billing webhooks and exposes probes and Prometheus metrics.
//
// Identity arrives in the X-User-ID header from the upstream gateway. A
// request over quota is answered with
//
//	429 {"success":false,"error":"<feature> limit reached","code":"USAGE_LIMIT_EXCEEDED"}
//
// and any failure to decide with
//
//	500 {"success":false,"error":"internal error","code":"INTERNAL_ERROR"}
package gate
