// Package readiness folds the outputs of the token inspector and both
// resolvers into one immutable State.
//
// Compute is pure: the same Inputs always produce the same State, so the
// coordinator can recompute on every transition without tracking what
// changed.
package readiness

import (
	"github.com/dmitrijs2005/folio/internal/client/models"
)

// Status is the fetch status of a remote resource.
type Status int

const (
	// StatusUnknown means no fetch is applicable or none has been started.
	StatusUnknown Status = iota
	StatusLoading
	StatusPresent
	// StatusAbsent is a settled "does not exist" (404 for the account, no
	// usable session for the identity).
	StatusAbsent
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusLoading:
		return "loading"
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Settled reports whether a fetch has completed with a definitive answer.
func (s Status) Settled() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusFailed
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Inputs are the latest known outputs of the pipeline stages.
type Inputs struct {
	TokenPresent bool
	TokenExpired bool

	IdentityStatus Status
	User           *models.UserProfile
	IdentityErr    error

	// AccountOwner is the user id the account fetch was issued for. A
	// snapshot owned by anyone but the current user is ignored.
	AccountOwner  string
	AccountStatus Status
	Account       *models.PaperAccount
	AccountErr    error
}

// State is the derived readiness snapshot. Consumers must not act on
// IsAuthenticated, HasCompletedOnboarding or HasResource until IsReady.
type State struct {
	User    *models.UserProfile  `json:"user"`
	Account *models.PaperAccount `json:"account"`

	IdentityStatus Status `json:"identity_status"`
	AccountStatus  Status `json:"account_status"`

	IsUserLoading     bool `json:"is_user_loading"`
	IsResourceLoading bool `json:"is_resource_loading"`
	IsLoading         bool `json:"is_loading"`

	IsAuthenticated        bool `json:"is_authenticated"`
	HasCompletedOnboarding bool `json:"has_completed_onboarding"`
	HasResource            bool `json:"has_resource"`
	IsReady                bool `json:"is_ready"`

	Error error `json:"-"`
}

// ErrorMessage returns the retained error text, or "".
func (s State) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return s.Error.Error()
}

// Compute derives a State from in.
func Compute(in Inputs) State {
	tokenUsable := in.TokenPresent && !in.TokenExpired

	st := State{
		IdentityStatus: in.IdentityStatus,
		IsUserLoading:  in.IdentityStatus == StatusLoading,
	}

	st.IsAuthenticated = tokenUsable && in.IdentityStatus == StatusPresent && in.User != nil
	if st.IsAuthenticated {
		st.User = in.User.Clone()
	}
	st.HasCompletedOnboarding = st.IsAuthenticated && in.User.HasCompletedOnboarding

	// The account only counts for the user it was fetched for.
	acctStatus := StatusUnknown
	if st.IsAuthenticated && in.AccountOwner == in.User.ID {
		acctStatus = in.AccountStatus
	}
	st.AccountStatus = acctStatus
	st.IsResourceLoading = acctStatus == StatusLoading
	if acctStatus == StatusPresent && in.Account != nil {
		st.HasResource = true
		st.Account = in.Account.Clone()
	}

	st.IsReady = in.IdentityStatus.Settled() && (!st.HasCompletedOnboarding || acctStatus.Settled())
	st.IsLoading = st.IsUserLoading || (st.HasCompletedOnboarding && st.IsResourceLoading)

	// A failed revalidation keeps the previous profile but retains the error.
	switch {
	case in.IdentityErr != nil:
		st.Error = in.IdentityErr
	case st.HasCompletedOnboarding && acctStatus == StatusFailed:
		st.Error = in.AccountErr
	}

	return st
}
