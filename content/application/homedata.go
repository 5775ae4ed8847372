package application

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultHomeDataTTL = 5 * time.Minute
	homeDataKey        = "home-data"
)

// HomeDataFetchFunc loads a fresh home data aggregate.
type HomeDataFetchFunc func(ctx context.Context) (*domain.HomePageData, error)

type homeDataEntry struct {
	data      *domain.HomePageData
	fetchedAt time.Time
}

// HomeDataCache is the process-level home data store used by providers that
// were not seeded. Every fetch is stamped with a sequence token and a result
// older than the last applied one is dropped, so a slow response can never
// overwrite a newer one.
type HomeDataCache struct {
	fetch HomeDataFetchFunc
	ttl   time.Duration
	now   func() time.Time

	group      singleflight.Group
	seq        atomic.Uint64
	refreshing atomic.Bool

	mu      sync.RWMutex
	entry   *homeDataEntry
	applied uint64

	// Lifecycle context for fetches, cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lifeMu orders wg.Add in RefreshAsync before wg.Wait in Close.
	lifeMu sync.Mutex
	closed bool
}

func NewHomeDataCache(fetch HomeDataFetchFunc, ttl time.Duration) *HomeDataCache {
	if ttl <= 0 {
		ttl = DefaultHomeDataTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &HomeDataCache{
		fetch:  fetch,
		ttl:    ttl,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close cancels in-flight fetches and waits for background refreshes.
func (c *HomeDataCache) Close() error {
	c.lifeMu.Lock()
	c.closed = true
	c.cancel()
	c.lifeMu.Unlock()

	c.wg.Wait()
	return nil
}

// Lookup returns the cached aggregate, if any, and whether it is still
// inside the freshness window.
func (c *HomeDataCache) Lookup() (*domain.HomePageData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return nil, false
	}
	return c.entry.data, c.now().Sub(c.entry.fetchedAt) < c.ttl
}

// Fetch loads the aggregate, sharing one upstream call between concurrent
// callers. The shared call is bound to the cache lifetime, not to ctx; ctx
// only bounds how long this caller waits.
func (c *HomeDataCache) Fetch(ctx context.Context) (*domain.HomePageData, error) {
	ch := c.group.DoChan(homeDataKey, func() (any, error) {
		token := c.seq.Add(1)
		data, err := c.fetch(c.ctx)
		if err != nil {
			return nil, err
		}
		return c.apply(token, data), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.HomePageData), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RefreshAsync starts a silent background refetch unless one is running or
// the cache is closed.
func (c *HomeDataCache) RefreshAsync() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.closed || c.ctx.Err() != nil {
		return
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.refreshing.Store(false)

		if _, err := c.Fetch(c.ctx); err != nil {
			log.Warn().Err(err).Msg("Background home data refresh failed")
		}
	}()
}

// Invalidate drops the cached aggregate. Fetches that started before the
// call are fenced off and will not repopulate the cache.
func (c *HomeDataCache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.applied = c.seq.Load()
	c.mu.Unlock()

	c.group.Forget(homeDataKey)
}

// apply stores data fetched under token unless a newer result already
// landed, and returns whatever is current afterwards.
func (c *HomeDataCache) apply(token uint64, data *domain.HomePageData) *domain.HomePageData {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token <= c.applied {
		log.Debug().Uint64("token", token).Uint64("applied", c.applied).Msg("Discarding out-of-order home data response")
		if c.entry != nil {
			return c.entry.data
		}
		return data
	}

	c.applied = token
	c.entry = &homeDataEntry{data: data, fetchedAt: c.now()}
	return data
}

// HomeDataView is the synchronous snapshot every template reads. Absent
// sections are absent blocks and menus default to empty.
type HomeDataView struct {
	IsLoading      bool                                         `json:"isLoading"`
	Settings       *domain.SettingsConfig                       `json:"settings"`
	Menus          []domain.MenuItem                            `json:"menus"`
	ComponentOrder []domain.ComponentType                       `json:"componentOrder"`
	Hero           domain.Block[domain.HeroConfig]              `json:"hero"`
	Stats          domain.Block[domain.StatsConfig]             `json:"stats"`
	About          domain.Block[domain.AboutConfig]             `json:"about"`
	Categories     domain.Block[domain.ProductCategoriesConfig] `json:"categories"`
	Products       domain.Block[domain.FeaturedProductsConfig]  `json:"products"`
	Partners       domain.Block[domain.PartnersConfig]          `json:"partners"`
	News           domain.Block[domain.NewsConfig]              `json:"news"`
	Footer         domain.Block[domain.FooterConfig]            `json:"footer"`
}

func viewOf(data *domain.HomePageData, loading bool) HomeDataView {
	view := HomeDataView{
		IsLoading:      loading,
		Menus:          []domain.MenuItem{},
		ComponentOrder: []domain.ComponentType{},
	}
	if data == nil {
		return view
	}

	view.Settings = data.Settings
	if data.Menus != nil {
		view.Menus = data.Menus
	}
	if data.Components.Order != nil {
		view.ComponentOrder = data.Components.Order
	}
	view.Hero = data.Components.Hero
	view.Stats = data.Components.Stats
	view.About = data.Components.About
	view.Categories = data.Components.ProductCategories
	view.Products = data.Components.FeaturedProducts
	view.Partners = data.Components.Partners
	view.News = data.Components.News
	view.Footer = data.Components.Footer
	return view
}

// HomeDataProvider makes one home data aggregate available to everything
// rendering a single request.
type HomeDataProvider struct {
	mu      sync.RWMutex
	data    *domain.HomePageData
	loading bool
	seeded  bool
	done    chan struct{}
}

// NewHomeDataProvider builds a provider. A non-nil seed is authoritative and
// the provider never fetches. Without a seed the provider reads cache: a
// fresh entry is used as is, a stale entry is used while cache refreshes in
// the background, and no entry starts a fetch right away.
func NewHomeDataProvider(ctx context.Context, seed *domain.HomePageData, cache *HomeDataCache) *HomeDataProvider {
	p := &HomeDataProvider{done: make(chan struct{})}

	if seed != nil {
		p.data = seed
		p.seeded = true
		close(p.done)
		return p
	}

	if cache == nil {
		close(p.done)
		return p
	}

	if data, fresh := cache.Lookup(); data != nil {
		p.data = data
		close(p.done)
		if !fresh {
			cache.RefreshAsync()
		}
		return p
	}

	p.loading = true
	go func() {
		defer close(p.done)

		data, err := cache.Fetch(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to load home data")
		}

		p.mu.Lock()
		p.data = data
		p.loading = false
		p.mu.Unlock()
	}()

	return p
}

// Read returns the current snapshot. It is safe on a nil provider.
func (p *HomeDataProvider) Read() HomeDataView {
	if p == nil {
		return viewOf(nil, false)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return viewOf(p.data, p.loading)
}

// Available reports whether the provider holds home data. It is false while
// the initial fetch runs and after that fetch failed.
func (p *HomeDataProvider) Available() bool {
	if p == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data != nil
}

// Seeded reports whether the provider was built from server data.
func (p *HomeDataProvider) Seeded() bool {
	return p != nil && p.seeded
}

// Wait blocks until the initial fetch, if any, has resolved.
func (p *HomeDataProvider) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type homeDataCtxKey struct{}

// WithHomeData attaches p to ctx.
func WithHomeData(ctx context.Context, p *HomeDataProvider) context.Context {
	return context.WithValue(ctx, homeDataCtxKey{}, p)
}

// HomeDataFrom returns the provider attached to ctx, or nil.
func HomeDataFrom(ctx context.Context) *HomeDataProvider {
	p, _ := ctx.Value(homeDataCtxKey{}).(*HomeDataProvider)
	return p
}

const homeLabel = "Trang chủ"

// NavLinks prepends the home link to the CMS menu and drops any CMS entry
// that duplicates it.
func NavLinks(menus []domain.MenuItem) []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(menus)+1)
	out = append(out, domain.MenuItem{Label: homeLabel, Href: "/"})
	for _, m := range menus {
		if strings.EqualFold(strings.TrimSpace(m.Label), homeLabel) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SectionOrder returns the home sections to render in the body, in order.
// The footer is rendered by the layout and unknown types are skipped.
func SectionOrder(order []domain.ComponentType) []domain.ComponentType {
	out := make([]domain.ComponentType, 0, len(order))
	for _, t := range order {
		if t == domain.ComponentFooter || !domain.KnownComponent(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
