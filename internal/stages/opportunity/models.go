// internal/stages/opportunity/models.go
package opportunity

import "research-pipeline/internal/entity"

// Request is the payload sent to the opportunity ranking backend.
type Request struct {
	MarketGaps []entity.MarketGap `json:"market_gaps"`
}
