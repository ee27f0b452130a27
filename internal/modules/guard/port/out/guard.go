package out

import (
	"context"

	"pomoguard/internal/modules/guard/domain"
)

type StateReader interface {
	Session(ctx context.Context) (domain.SessionView, error)
}

type SiteReader interface {
	BlockedSites(ctx context.Context) ([]string, error)
}

type Metrics interface {
	Decided(d domain.Decision)
	Redirected()
	Contexts(n int)
}
