package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pomoguard/internal/modules/guard/domain"
	guardout "pomoguard/internal/modules/guard/port/out"
	"pomoguard/internal/platform/clock"
	apperrors "pomoguard/internal/platform/errors"
	"pomoguard/internal/platform/id"
	"pomoguard/internal/platform/logger"
)

const (
	WatchInterval = 500 * time.Millisecond
	ContextTTL    = 30 * time.Second
)

type Config struct {
	State    guardout.StateReader
	Sites    guardout.SiteReader
	Metrics  guardout.Metrics
	Clock    clock.Clock
	Tickers  clock.TickerFactory
	IDs      id.Generator
	BlockURL string
	Log      logger.Logger
}

type subscriber struct {
	contextID string
	ch        chan domain.Redirect
}

// Service evaluates navigations and runs the polling fallback that catches
// in-page route changes a navigation hook never sees.
type Service struct {
	state    guardout.StateReader
	sites    guardout.SiteReader
	metrics  guardout.Metrics
	clock    clock.Clock
	tickers  clock.TickerFactory
	ids      id.Generator
	blockURL string
	log      logger.Logger

	mu       sync.Mutex
	contexts map[string]*domain.NavigationContext
	subs     map[string]subscriber
}

func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Tickers == nil {
		cfg.Tickers = clock.SystemClock{}
	}
	if cfg.IDs == nil {
		cfg.IDs = id.UUID{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.BlockURL == "" {
		cfg.BlockURL = domain.DefaultBlockURL
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	return &Service{
		state:    cfg.State,
		sites:    cfg.Sites,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
		tickers:  cfg.Tickers,
		ids:      cfg.IDs,
		blockURL: cfg.BlockURL,
		log:      cfg.Log.With(logger.Component("guard")),
		contexts: map[string]*domain.NavigationContext{},
		subs:     map[string]subscriber{},
	}
}

func (s *Service) Name() string { return "guard-watcher" }

func (s *Service) BlockURL() string { return s.blockURL }

// Check reads settings and timer state fresh on every call.
func (s *Service) Check(ctx context.Context, rawURL string) (domain.Decision, error) {
	view, sites, err := s.inputs(ctx)
	if err != nil {
		return domain.Decision{}, err
	}
	d, err := domain.Evaluate(rawURL, view, sites, s.blockURL)
	if err != nil {
		return domain.Decision{}, err
	}
	s.metrics.Decided(d)
	return d, nil
}

func (s *Service) Report(ctx context.Context, contextID, rawURL string) (string, domain.Decision, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", domain.Decision{}, fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput)
	}
	if contextID == "" {
		contextID = s.ids.New()
	}
	d, err := s.Check(ctx, rawURL)
	if err != nil {
		return contextID, domain.Decision{}, err
	}

	s.mu.Lock()
	c, ok := s.contexts[contextID]
	if !ok {
		c = &domain.NavigationContext{ID: contextID}
		s.contexts[contextID] = c
	}
	if c.URL != rawURL {
		c.RedirectedURL = ""
	}
	c.URL = rawURL
	c.LastSeen = s.clock.Now()
	if d.Blocked {
		s.redirectLocked(c, d)
	}
	n := len(s.contexts)
	s.mu.Unlock()

	s.metrics.Contexts(n)
	return contextID, d, nil
}

func (s *Service) Forget(contextID string) {
	s.mu.Lock()
	delete(s.contexts, contextID)
	n := len(s.contexts)
	s.mu.Unlock()
	s.metrics.Contexts(n)
}

func (s *Service) Contexts() []domain.NavigationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.NavigationContext, 0, len(s.contexts))
	for _, c := range s.contexts {
		out = append(out, *c)
	}
	return out
}

// Subscribe streams redirects for contextID, or every redirect when it is empty.
func (s *Service) Subscribe(contextID string, buffer int) (<-chan domain.Redirect, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	subID := s.ids.New()
	ch := make(chan domain.Redirect, buffer)
	s.mu.Lock()
	s.subs[subID] = subscriber{contextID: contextID, ch: ch}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, subID)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Run is the polling fallback: every WatchInterval it evicts contexts unseen
// for ContextTTL and re-evaluates the rest.
func (s *Service) Run(ctx context.Context) error {
	t := s.tickers.NewTicker(WatchInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			s.Sweep(ctx)
		}
	}
}

func (s *Service) Sweep(ctx context.Context) {
	now := s.clock.Now()
	s.mu.Lock()
	for key, c := range s.contexts {
		if c.Stale(now, ContextTTL) {
			delete(s.contexts, key)
		}
	}
	pending := make([]domain.NavigationContext, 0, len(s.contexts))
	for _, c := range s.contexts {
		pending = append(pending, *c)
	}
	n := len(s.contexts)
	s.mu.Unlock()
	s.metrics.Contexts(n)
	if len(pending) == 0 {
		return
	}

	view, sites, err := s.inputs(ctx)
	if err != nil {
		s.log.Debug("guard sweep skipped", logger.Err(err))
		return
	}
	for _, snapshot := range pending {
		d, err := domain.Evaluate(snapshot.URL, view, sites, s.blockURL)
		if err != nil {
			continue
		}
		s.mu.Lock()
		c, ok := s.contexts[snapshot.ID]
		if ok && c.URL == snapshot.URL {
			if d.Blocked {
				if c.RedirectedURL != c.URL {
					s.redirectLocked(c, d)
				}
			} else {
				c.RedirectedURL = ""
			}
		}
		s.mu.Unlock()
	}
}

func (s *Service) BlockPage(ctx context.Context) (domain.SessionView, error) {
	return s.state.Session(ctx)
}

func (s *Service) inputs(ctx context.Context) (domain.SessionView, []string, error) {
	sites, err := s.sites.BlockedSites(ctx)
	if err != nil {
		return domain.SessionView{}, nil, fmt.Errorf("read blocked sites: %w", err)
	}
	view, err := s.state.Session(ctx)
	if err != nil {
		return domain.SessionView{}, nil, fmt.Errorf("read timer state: %w", err)
	}
	return view, sites, nil
}

func (s *Service) redirectLocked(c *domain.NavigationContext, d domain.Decision) {
	c.RedirectedURL = c.URL
	ev := domain.Redirect{
		ContextID: c.ID,
		From:      c.URL,
		To:        d.Redirect,
		Host:      d.Host,
		Site:      d.MatchedSite,
		At:        s.clock.Now(),
	}
	for _, sub := range s.subs {
		if sub.contextID != "" && sub.contextID != c.ID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
	s.metrics.Redirected()
	s.log.Info("navigation blocked", logger.String("context", c.ID), logger.String("host", d.Host), logger.String("site", d.MatchedSite))
}

type noopMetrics struct{}

func (noopMetrics) Decided(domain.Decision) {}
func (noopMetrics) Redirected()             {}
func (noopMetrics) Contexts(int)            {}
