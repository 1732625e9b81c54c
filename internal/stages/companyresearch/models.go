// internal/stages/companyresearch/models.go
package companyresearch

// Request is the payload sent to the company research backend.
type Request struct {
	CompanyName string `json:"company_name"`
}
