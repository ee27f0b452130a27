package usecase

import (
	"context"

	"pomoguard/internal/modules/guard/domain"
	"pomoguard/internal/modules/guard/dto"
	guardin "pomoguard/internal/modules/guard/port/in"
)

const redirectEvent = "redirect"

type servicePort interface {
	Check(ctx context.Context, rawURL string) (domain.Decision, error)
	Report(ctx context.Context, contextID, rawURL string) (string, domain.Decision, error)
	Forget(contextID string)
	Subscribe(contextID string, buffer int) (<-chan domain.Redirect, func())
	BlockPage(ctx context.Context) (domain.SessionView, error)
}

type Interactor struct {
	svc servicePort
}

func NewInteractor(svc servicePort) guardin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Check(ctx context.Context, url string) (dto.DecisionOutput, error) {
	d, err := i.svc.Check(ctx, url)
	if err != nil {
		return dto.DecisionOutput{}, err
	}
	return mapDecision("", d), nil
}

func (i *Interactor) Report(ctx context.Context, input dto.NavigationInput) (dto.DecisionOutput, error) {
	contextID, d, err := i.svc.Report(ctx, input.ContextID, input.URL)
	if err != nil {
		return dto.DecisionOutput{}, err
	}
	return mapDecision(contextID, d), nil
}

func (i *Interactor) Forget(_ context.Context, contextID string) error {
	i.svc.Forget(contextID)
	return nil
}

func (i *Interactor) Subscribe(ctx context.Context, contextID string, buffer int) (<-chan dto.RedirectOutput, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	events, cancel := i.svc.Subscribe(contextID, buffer)
	out := make(chan dto.RedirectOutput, buffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- mapRedirect(ev):
				default:
				}
			}
		}
	}()
	return out, cancel
}

func (i *Interactor) BlockPage(ctx context.Context) (dto.BlockPageOutput, error) {
	view, err := i.svc.BlockPage(ctx)
	if err != nil {
		return dto.BlockPageOutput{}, err
	}
	return dto.BlockPageOutput{
		Title:       domain.BlockTitle(view.TimeLeft),
		Clock:       domain.ClockText(view.TimeLeft),
		TimeLeft:    view.TimeLeft,
		FocusActive: view.FocusActive(),
		OnBreak:     view.OnBreak,
	}, nil
}

func mapDecision(contextID string, d domain.Decision) dto.DecisionOutput {
	return dto.DecisionOutput{
		ContextID:   contextID,
		URL:         d.URL,
		Host:        d.Host,
		FocusActive: d.FocusActive,
		BlockPage:   d.BlockPage,
		Blocked:     d.Blocked,
		MatchedSite: d.MatchedSite,
		Redirect:    d.Redirect,
	}
}

func mapRedirect(ev domain.Redirect) dto.RedirectOutput {
	return dto.RedirectOutput{
		Type:      redirectEvent,
		ContextID: ev.ContextID,
		From:      ev.From,
		To:        ev.To,
		Host:      ev.Host,
		Site:      ev.Site,
		At:        ev.At,
	}
}
