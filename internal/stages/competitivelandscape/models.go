// internal/stages/competitivelandscape/models.go
package competitivelandscape

// Request is the payload sent to the competitive landscape backend. The
// score of the selected domain travels along so the backend can weight
// its competitor search.
type Request struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}
