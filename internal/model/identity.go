package model

// Identity is the authenticated caller of a request.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`

	// Delegated identities act for a recruiter through an agent credential
	// and are bound to a single interview.
	Delegated   bool   `json:"delegated,omitempty"`
	InterviewID string `json:"interviewId,omitempty"`
}

func (i *Identity) IsCandidate() bool {
	return i != nil && i.Role == RoleCandidate
}

func (i *Identity) IsRecruiter() bool {
	return i != nil && i.Role == RoleRecruiter
}

// CanAccess reports whether the identity may act on the given interview.
func (i *Identity) CanAccess(interview *Interview) bool {
	if i == nil || interview == nil {
		return false
	}
	if i.Delegated && i.InterviewID != interview.ID {
		return false
	}
	switch i.Role {
	case RoleCandidate:
		return interview.CandidateID == i.ID
	case RoleRecruiter:
		return interview.RecruiterID == i.ID
	}
	return false
}
