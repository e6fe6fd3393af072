package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cleberrangel/delivery-board/internal/cache"
	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/google/uuid"
)

// Origens de uma carga da lista
const (
	SourceMount    = "mount"
	SourceRefresh  = "refresh"
	SourceInterval = "interval"
)

// FeedFetcher busca os grupos do feed
type FeedFetcher interface {
	FetchGroups(ctx context.Context) ([]model.Group, error)
}

// BoardOptions configura o board
type BoardOptions struct {
	VisibleCount    int
	RefreshInterval time.Duration
	// Memo guarda os resultados de busca; nil desativa a memoização
	Memo *cache.Cache
	// OnUpdate é chamado após cada reconstrução da lista
	OnUpdate func(model.UpdateEvent)
}

// Board mantém a lista normalizada durante a vida do componente
type Board struct {
	fetcher      FeedFetcher
	normalizer   *Normalizer
	memo         *cache.Cache
	visibleCount int
	interval     time.Duration
	onUpdate     func(model.UpdateEvent)

	mu         sync.RWMutex
	deliveries []model.Delivery
	version    uint64
	loaded     bool
	lastErr    error
	lastLoad   time.Time

	lifeMu     sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	mounted    bool
	closed     bool
	generation uint64
	wg         sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once
}

// NewBoard cria um board ainda não montado
func NewBoard(fetcher FeedFetcher, normalizer *Normalizer, opts BoardOptions) *Board {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Board{
		fetcher:      fetcher,
		normalizer:   normalizer,
		memo:         opts.Memo,
		visibleCount: opts.VisibleCount,
		interval:     opts.RefreshInterval,
		onUpdate:     opts.OnUpdate,
		deliveries:   []model.Delivery{},
		ready:        make(chan struct{}),
	}
}

// Mount inicia a vida do board: dispara a busca única do feed e, se configurado, a recarga periódica.
// O contexto da vida do board deriva de parent e termina em Close.
func (b *Board) Mount(parent context.Context) error {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	if b.closed {
		return model.ErrBoardClosed
	}
	if b.mounted {
		return nil
	}

	b.ctx, b.cancel = context.WithCancel(parent)
	b.mounted = true

	logger.AuditBoard(parent, logger.AuditActionMount, true, map[string]interface{}{
		"visible_count":    b.visibleCount,
		"refresh_interval": b.interval.String(),
	})

	b.startLoadLocked(SourceMount)

	if b.interval > 0 {
		b.wg.Add(1)
		go b.refreshLoop(b.ctx)
	}
	return nil
}

// Reload reconstrói a lista com uma nova busca. Cargas anteriores ainda em voo são descartadas.
func (b *Board) Reload(ctx context.Context) error {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	if b.closed || !b.mounted {
		return model.ErrBoardClosed
	}

	logger.AuditBoard(ctx, logger.AuditActionRefresh, true, nil)
	b.startLoadLocked(SourceRefresh)
	return nil
}

// Close cancela a busca em andamento e espera as goroutines do board terminarem.
// Resultados que chegarem depois disso são descartados.
func (b *Board) Close() {
	b.lifeMu.Lock()
	if b.closed {
		b.lifeMu.Unlock()
		return
	}
	b.closed = true
	ctx := b.ctx
	if b.cancel != nil {
		b.cancel()
	}
	b.lifeMu.Unlock()

	b.wg.Wait()

	if ctx != nil {
		logger.AuditBoard(context.WithoutCancel(ctx), logger.AuditActionUnmount, true, nil)
	}
}

// startLoadLocked exige lifeMu
func (b *Board) startLoadLocked(source string) {
	b.generation++
	gen := b.generation

	b.wg.Add(1)
	go b.load(b.ctx, gen, source)
}

func (b *Board) refreshLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.lifeMu.Lock()
			if !b.closed {
				b.startLoadLocked(SourceInterval)
			}
			b.lifeMu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (b *Board) load(ctx context.Context, gen uint64, source string) {
	defer b.wg.Done()
	defer b.markReady()

	ctx = logger.WithOperationID(ctx, uuid.New().String())
	log := logger.Get(ctx)
	start := time.Now()

	groups, err := b.fetcher.FetchGroups(ctx)
	if err != nil {
		if b.stale(ctx, gen) {
			b.discard(ctx, gen, source)
			return
		}
		b.mu.Lock()
		b.lastErr = err
		b.mu.Unlock()

		logger.AuditBoard(ctx, logger.AuditActionLoadFailed, false, map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return
	}

	list := b.normalizer.Normalize(ctx, groups)

	if !b.commit(ctx, gen, list) {
		b.discard(ctx, gen, source)
		return
	}

	metrics.Get().SetLoadSize(CountRecords(groups), len(list))
	metrics.DeliveriesLoaded.Set(float64(len(list)))

	log.Info().
		Str("source", source).
		Int("deliveries", len(list)).
		Dur("duration", time.Since(start)).
		Msg("Lista de entregas reconstruída")
	logger.AuditBoard(ctx, logger.AuditActionLoad, true, map[string]interface{}{
		"source":     source,
		"deliveries": len(list),
	})

	if b.onUpdate != nil {
		b.onUpdate(model.UpdateEvent{Total: len(list), Source: source})
	}
}

// commit troca a lista inteira se a carga ainda é a mais recente e o board não foi encerrado
func (b *Board) commit(ctx context.Context, gen uint64, list []model.Delivery) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stale(ctx, gen) {
		return false
	}

	b.deliveries = list
	b.version++
	b.loaded = true
	b.lastErr = nil
	b.lastLoad = time.Now()

	if b.memo != nil {
		b.memo.InvalidatePrefix(searchKeyPrefix)
	}
	return true
}

func (b *Board) stale(ctx context.Context, gen uint64) bool {
	if ctx.Err() != nil {
		return true
	}
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()
	return b.closed || gen != b.generation
}

func (b *Board) discard(ctx context.Context, gen uint64, source string) {
	metrics.Get().RecordDiscardedLoad()
	logger.Get(ctx).Debug().
		Uint64("generation", gen).
		Str("source", source).
		Msg("Resultado de carga descartado")
}

func (b *Board) markReady() {
	b.readyOnce.Do(func() { close(b.ready) })
}

// Ready é fechado quando a primeira carga termina, com sucesso ou não
func (b *Board) Ready() <-chan struct{} {
	return b.ready
}

// IsReady indica se a primeira carga terminou
func (b *Board) IsReady() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// Deliveries devolve a lista canônica atual
func (b *Board) Deliveries() []model.Delivery {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.deliveries
}

// prefixo das chaves de busca no memo
const searchKeyPrefix = "search:"

// Search filtra a lista atual pelo cliente, memoizando por termo
func (b *Board) Search(term string) []model.Delivery {
	b.mu.RLock()
	list, version := b.deliveries, b.version
	b.mu.RUnlock()

	if b.memo == nil {
		metrics.Get().RecordSearch(false)
		metrics.SearchCount.WithLabelValues("miss").Inc()
		return FilterByClient(list, term)
	}

	key := searchKeyPrefix + strconv.FormatUint(version, 10) + ":" + term
	if cached, ok := b.memo.Get(key); ok {
		metrics.Get().RecordSearch(true)
		metrics.SearchCount.WithLabelValues("hit").Inc()
		return cached.([]model.Delivery)
	}

	result := FilterByClient(list, term)
	b.memo.Set(key, result)
	metrics.Get().RecordSearch(false)
	metrics.SearchCount.WithLabelValues("miss").Inc()
	return result
}

// Page devolve a fatia visível da busca
func (b *Board) Page(term string) model.Page {
	filtered := b.Search(term)

	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()

	return model.Page{
		Term:         term,
		Total:        len(filtered),
		VisibleCount: b.visibleCount,
		Cards:        BuildCards(Paginate(filtered, b.visibleCount)),
		Loaded:       loaded,
	}
}

// BoardStatus resume o estado do board para health checks
type BoardStatus struct {
	Mounted    bool
	Ready      bool
	Loaded     bool
	Deliveries int
	LastLoad   time.Time
	LastError  error
}

// Status devolve o estado atual
func (b *Board) Status() BoardStatus {
	b.lifeMu.Lock()
	mounted := b.mounted && !b.closed
	b.lifeMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()

	return BoardStatus{
		Mounted:    mounted,
		Ready:      b.IsReady(),
		Loaded:     b.loaded,
		Deliveries: len(b.deliveries),
		LastLoad:   b.lastLoad,
		LastError:  b.lastErr,
	}
}
