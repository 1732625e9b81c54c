// internal/stage/result.go
package stage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the canonical outcome of one adapter call. Exactly one of
// (Data, Success=true) or (Error, Success=false) holds.
type Result struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data,omitempty"`
	Error       string      `json:"error,omitempty"`
	RawResponse string      `json:"raw_response,omitempty"`
}

// OK wraps validated data into a successful Result.
func OK(data interface{}, raw string) Result {
	return Result{Success: true, Data: data, RawResponse: raw}
}

// Fail wraps a failure message into an unsuccessful Result.
func Fail(format string, args ...interface{}) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Normalize maps the loose shapes returned by the analysis backends into
// the canonical Result. Backends variously report their payload under a
// "data" key, a "result" key, or only as a JSON string under
// "raw_response"; this is the single place that distinction exists.
func Normalize(raw map[string]interface{}) Result {
	var res Result

	if v, ok := raw["raw_response"].(string); ok {
		res.RawResponse = v
	}
	if v, ok := raw["error"].(string); ok && v != "" {
		res.Error = v
	}
	if v, ok := raw["success"].(bool); ok && !v {
		res.Success = false
		if res.Error == "" {
			res.Error = "backend reported failure without a message"
		}
		return res
	}

	switch {
	case raw["data"] != nil:
		res.Data = raw["data"]
	case raw["result"] != nil:
		res.Data = raw["result"]
	case res.RawResponse != "":
		var decoded interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(res.RawResponse)), &decoded); err != nil {
			return Fail("raw response is not valid JSON: %v", err)
		}
		res.Data = decoded
	default:
		return Fail("response carries no data, result, or raw_response")
	}

	res.Success = true
	res.Error = ""
	return res
}
