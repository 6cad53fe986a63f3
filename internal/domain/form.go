package domain

// Form is a public intake form. Its approval routing decides whether tickets
// submitted through it start in pending_approval.
type Form struct {
	ID              int64
	Name            string
	ApprovalUserID  *int64
	ApprovalGroupID *int64
}

// RequiresApproval reports whether the form routes tickets to an approver.
func (f *Form) RequiresApproval() bool {
	return f != nil && (f.ApprovalUserID != nil || f.ApprovalGroupID != nil)
}

// InitialTicketStatus returns the status a ticket submitted through f starts in.
func InitialTicketStatus(f *Form) TicketStatus {
	if f.RequiresApproval() {
		return TicketStatusPendingApproval
	}
	return TicketStatusOpen
}
