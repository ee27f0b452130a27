package in

import (
	"context"

	"pomoguard/internal/modules/guard/dto"
)

type Usecase interface {
	Check(ctx context.Context, url string) (dto.DecisionOutput, error)
	// Report records a navigation, DOM mutation or virtual route change for a
	// browsing context. An empty ContextID is assigned one.
	Report(ctx context.Context, input dto.NavigationInput) (dto.DecisionOutput, error)
	Forget(ctx context.Context, contextID string) error
	// Subscribe streams redirects for one context, or for all when contextID is empty.
	Subscribe(ctx context.Context, contextID string, buffer int) (<-chan dto.RedirectOutput, func())
	BlockPage(ctx context.Context) (dto.BlockPageOutput, error)
}
