// Package httputil holds the JSON response helpers shared by the
// dashboard API handlers.
//
// Handlers reply through OK/Created/Error and friends rather than
// writing to the ResponseWriter directly, so every endpoint emits the
// same envelope: payloads as plain JSON, failures as {"error": ...}.
// Decode is the matching request-side helper; it answers a malformed
// body with a 400 so handlers only ever see a parsed struct.
package httputil
