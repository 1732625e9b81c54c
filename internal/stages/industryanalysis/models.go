// internal/stages/industryanalysis/models.go
package industryanalysis

import "research-pipeline/internal/entity"

// Request is the payload sent to the industry analysis backend.
type Request struct {
	CompanyProfile *entity.CompanyProfile `json:"company_profile"`
}
