package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/model"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout timeout padrão da busca do feed
	DefaultTimeout = 30 * time.Second

	// maxErrorBody limita o trecho do corpo incluído nos erros
	maxErrorBody = 512
)

// DeliveryClient busca o feed de entregas
type DeliveryClient struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDeliveryClient cria o cliente do feed. perMinute <= 0 desativa o limitador.
func NewDeliveryClient(url string, timeout time.Duration, perMinute int) *DeliveryClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	return &DeliveryClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchGroups faz uma única requisição ao feed e devolve os grupos na ordem de iteração do objeto
func (c *DeliveryClient) FetchGroups(ctx context.Context) ([]model.Group, error) {
	start := time.Now()

	groups, err := c.fetch(ctx)

	elapsed := time.Since(start)
	metrics.ObserveFetch(fetchStatus(err), elapsed)
	metrics.Get().RecordFetch(err == nil, elapsed.Milliseconds())

	if err != nil {
		logger.Get(ctx).Error().
			Err(err).
			Str("url", c.url).
			Dur("duration", elapsed).
			Msg("Falha ao buscar feed de entregas")
		return nil, err
	}

	logger.Get(ctx).Info().
		Int("groups", len(groups)).
		Dur("duration", elapsed).
		Msg("Feed de entregas recebido")
	return groups, nil
}

func (c *DeliveryClient) fetch(ctx context.Context) ([]model.Group, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("criar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, model.ErrTimeout
		}
		return nil, fmt.Errorf("executar request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// OK, continua
	case http.StatusTooManyRequests:
		return nil, model.ErrRateLimited
	case http.StatusNotFound:
		return nil, model.ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	groups, err := DecodeGroups(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}
		return nil, err
	}
	return groups, nil
}

func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.ErrTimeout
	}
	return model.ErrCanceled
}

func fetchStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrTimeout):
		return "timeout"
	case errors.Is(err, model.ErrCanceled):
		return "canceled"
	case errors.Is(err, model.ErrInvalidResponse):
		return "invalid"
	default:
		return "error"
	}
}

type entry struct {
	key   string
	value json.RawMessage
}

// DecodeGroups lê o objeto do feed preservando a ordem de Object.values:
// chaves que são índices de array primeiro, em ordem numérica, depois as demais na ordem do documento.
// Chaves repetidas ficam na posição da primeira ocorrência com o último valor.
func DecodeGroups(r io.Reader) ([]model.Group, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: esperado objeto JSON", model.ErrInvalidResponse)
	}

	var entries []entry
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: chave %q: %v", model.ErrInvalidResponse, key, err)
		}

		if i, dup := seen[key]; dup {
			entries[i].value = value
			continue
		}
		seen[key] = len(entries)
		entries = append(entries, entry{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: conteúdo após o objeto", model.ErrInvalidResponse)
	}

	orderEntries(entries)

	groups := make([]model.Group, 0, len(entries))
	for _, e := range entries {
		groups = append(groups, model.Group{Key: e.key, Records: decodeRecords(e.value)})
	}
	return groups, nil
}

func orderEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ai, iIdx := arrayIndex(entries[i].key)
		aj, jIdx := arrayIndex(entries[j].key)
		switch {
		case iIdx && jIdx:
			return ai < aj
		case iIdx:
			return true
		default:
			return false
		}
	})
}

// arrayIndex reconhece a forma canônica de um índice de array (0 a 2^32-2)
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n > 1<<32-2 {
		return 0, false
	}
	return n, true
}

// decodeRecords achata um nível: arrays viram seus objetos, um objeto isolado vira um registro
func decodeRecords(value json.RawMessage) []model.RawRecord {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		records := make([]model.RawRecord, 0, len(items))
		for _, item := range items {
			if rec, ok := decodeRecord(item); ok {
				records = append(records, rec)
			}
		}
		return records
	case '{':
		if rec, ok := decodeRecord(trimmed); ok {
			return []model.RawRecord{rec}
		}
	}
	return nil
}

func decodeRecord(item json.RawMessage) (model.RawRecord, bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.RawRecord{}, false
	}
	var rec model.RawRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return model.RawRecord{}, false
	}
	return rec, true
}
