package resolvers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/client/models"
)

// AccountSource fetches the paper account of the current user.
type AccountSource interface {
	FetchPaperAccount(ctx context.Context, token string) (*client.Response, error)
}

// AccountKind tags an AccountOutcome.
type AccountKind int

const (
	AccountPresent AccountKind = iota
	AccountAbsent
	AccountUnauthorized
	AccountFailed
)

func (k AccountKind) String() string {
	switch k {
	case AccountPresent:
		return "present"
	case AccountAbsent:
		return "absent"
	case AccountUnauthorized:
		return "unauthorized"
	case AccountFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AccountOutcome is the classified result of a paper account fetch.
// Absent is a legitimate answer, not a failure.
type AccountOutcome struct {
	Kind    AccountKind
	Account *models.PaperAccount
	Err     error
}

type accountDTO struct {
	ID          string    `json:"id" validate:"required"`
	UserID      string    `json:"user_id" validate:"required"`
	Currency    string    `json:"currency" validate:"omitempty,len=3,alpha"`
	CashBalance float64   `json:"cash_balance"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d accountDTO) toModel() *models.PaperAccount {
	return &models.PaperAccount{
		ID:          d.ID,
		UserID:      d.UserID,
		Currency:    strings.ToUpper(d.Currency),
		CashBalance: d.CashBalance,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// AccountResolver resolves the paper account of the token's user.
type AccountResolver struct {
	src  AccountSource
	opts options
}

// NewAccountResolver returns an AccountResolver reading from src.
func NewAccountResolver(src AccountSource, opts ...Option) *AccountResolver {
	return &AccountResolver{src: src, opts: newOptions(opts)}
}

// Resolve fetches and classifies the paper account.
func (r *AccountResolver) Resolve(ctx context.Context, token string) AccountOutcome {
	ctx, span := startSpan(ctx, r.opts.tracer, "resolvers.Account")
	start := time.Now()

	out := r.resolve(ctx, token)

	r.opts.metrics.ObserveFetch(metrics.ResourceAccount, out.Kind.String(), time.Since(start))
	endSpan(span, out.Kind.String(), out.Err)
	return out
}

func (r *AccountResolver) resolve(ctx context.Context, token string) AccountOutcome {
	resp, err := r.src.FetchPaperAccount(ctx, token)
	if err != nil {
		return AccountOutcome{Kind: AccountFailed, Err: err}
	}

	switch {
	case resp.Status == http.StatusUnauthorized:
		return AccountOutcome{Kind: AccountUnauthorized}
	case resp.Status == http.StatusNotFound:
		return AccountOutcome{Kind: AccountAbsent}
	case resp.Status < 200 || resp.Status >= 300:
		return AccountOutcome{Kind: AccountFailed, Err: resp.AsError()}
	}

	var dto accountDTO
	if err := decode(resp, &dto); err != nil {
		return AccountOutcome{Kind: AccountFailed, Err: err}
	}
	return AccountOutcome{Kind: AccountPresent, Account: dto.toModel()}
}
