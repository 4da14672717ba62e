package domain

// IntegrityIssueType classifies a stored-state inconsistency found by the
// integrity scan.
type IntegrityIssueType string

const (
	IssueDuplicatePayment    IntegrityIssueType = "DUPLICATE_PAYMENT"
	IssueDuplicateAllocation IntegrityIssueType = "DUPLICATE_ALLOCATION"
	IssueUnallocatedMismatch IntegrityIssueType = "UNALLOCATED_MISMATCH"
)

// IntegrityIssue describes one detected inconsistency with enough identifiers
// for manual remediation. The scanner never auto-repairs.
type IntegrityIssue struct {
	Type           IntegrityIssueType `json:"type"`
	CompanyCode    string             `json:"companyCode"`
	PaymentIDs     []string           `json:"paymentIDs,omitempty"`
	ObligationID   string             `json:"obligationID,omitempty"`
	AllocationIDs  []string           `json:"allocationIDs,omitempty"`
	Detail         string             `json:"detail"`
	Recommendation string             `json:"recommendation"`
}

// IntegrityReport aggregates the issues of one scan with per-type counts.
type IntegrityReport struct {
	Issues []IntegrityIssue           `json:"issues"`
	Counts map[IntegrityIssueType]int `json:"counts"`
}
