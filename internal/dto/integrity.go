package dto

import "github.com/crestline/billing_ledger/internal/core/domain"

// IntegrityIssueResponse mirrors domain.IntegrityIssue.
type IntegrityIssueResponse struct {
	Type           string   `json:"type"`
	CompanyCode    string   `json:"companyCode"`
	PaymentIDs     []string `json:"paymentIDs,omitempty"`
	ObligationID   string   `json:"obligationID,omitempty"`
	AllocationIDs  []string `json:"allocationIDs,omitempty"`
	Detail         string   `json:"detail"`
	Recommendation string   `json:"recommendation"`
}

// IntegrityReportResponse carries every detected issue plus per-type counts.
type IntegrityReportResponse struct {
	Issues []IntegrityIssueResponse `json:"issues"`
	Counts map[string]int           `json:"counts"`
}

// ToIntegrityReportResponse converts a domain.IntegrityReport.
func ToIntegrityReportResponse(r *domain.IntegrityReport) IntegrityReportResponse {
	issues := make([]IntegrityIssueResponse, len(r.Issues))
	for i, issue := range r.Issues {
		issues[i] = IntegrityIssueResponse{
			Type:           string(issue.Type),
			CompanyCode:    issue.CompanyCode,
			PaymentIDs:     issue.PaymentIDs,
			ObligationID:   issue.ObligationID,
			AllocationIDs:  issue.AllocationIDs,
			Detail:         issue.Detail,
			Recommendation: issue.Recommendation,
		}
	}
	counts := make(map[string]int, len(r.Counts))
	for k, v := range r.Counts {
		counts[string(k)] = v
	}
	return IntegrityReportResponse{Issues: issues, Counts: counts}
}
