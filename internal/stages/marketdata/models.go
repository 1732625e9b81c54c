// internal/stages/marketdata/models.go
package marketdata

// Request is the payload sent to the market data backend.
type Request struct {
	Domain string `json:"domain"`
}
