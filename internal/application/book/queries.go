package book

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/pkg/circuitbreaker"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// 检索结果来源
const (
	SourceSearch   = "search"
	SourceDatabase = "database"
)

// 降级原因（catalog_search_fallback_total的reason标签）
const (
	FallbackDisabled    = "disabled"
	FallbackCircuitOpen = "circuit_open"
	FallbackError       = "error"
)

// DefaultCacheTTL 图书详情缓存时间
const DefaultCacheTTL = 10 * time.Minute

// FilterResult 检索结果
type FilterResult struct {
	Books  []*book.Book
	Page   int
	Size   int
	Source string // search | database
}

// QueryUseCase 图书查询
// 设计说明:
// 1. 详情查询走Redis旁路缓存，缓存故障时直接查从库
// 2. 条件检索以Elasticsearch为主路径，失败时降级到PostgreSQL
// 3. 降级路径只支持Filter的精确子集（没有模糊匹配和nested全文检索）
// 4. 熔断器打开后直接走降级路径，不再等待Elasticsearch超时
type QueryUseCase struct {
	books    book.Repository
	index    book.SearchIndex
	cache    book.Cache
	breaker  *circuitbreaker.CircuitBreaker
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewQueryUseCase 创建图书查询用例
// index为nil时只使用关系型路径；cache为nil时不使用缓存
func NewQueryUseCase(
	books book.Repository,
	index book.SearchIndex,
	cache book.Cache,
	breaker *circuitbreaker.CircuitBreaker,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *QueryUseCase {
	metrics.InitMetrics()
	if breaker == nil {
		breaker = circuitbreaker.New("elasticsearch", circuitbreaker.DefaultConfig())
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &QueryUseCase{
		books:    books,
		index:    index,
		cache:    cache,
		breaker:  breaker,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Get 按id查询图书详情
// 1. 查缓存，命中直接返回
// 2. 未命中查从库，不存在返回NotFound
// 3. 回填缓存，失败只记录日志
func (uc *QueryUseCase) Get(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	log := logger.WithContext(ctx, uc.logger)

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, id)
		if err != nil {
			log.Warn("读取图书缓存失败", zap.String("book_id", id.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	b, err := uc.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, book.ErrBookNotFound
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, b, uc.cacheTTL); err != nil {
			log.Warn("写入图书缓存失败", zap.String("book_id", id.String()), zap.Error(err))
		}
	}
	return b, nil
}

// Filter 条件检索
func (uc *QueryUseCase) Filter(ctx context.Context, f book.Filter) (result *FilterResult, err error) {
	// 参数错误直接返回，不计入熔断统计
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "book.filter")
	defer func() { tracing.EndSpan(span, err) }()

	reason := FallbackDisabled
	if uc.index != nil {
		books, searchErr := circuitbreaker.Call(ctx, uc.breaker, func(ctx context.Context) ([]*book.Book, error) {
			return uc.index.Search(ctx, f)
		})
		if searchErr == nil {
			return &FilterResult{Books: books, Page: f.Page, Size: f.Size, Source: SourceSearch}, nil
		}

		reason = FallbackError
		if errors.Is(searchErr, circuitbreaker.ErrOpenState) {
			reason = FallbackCircuitOpen
		}
		logger.WithContext(ctx, uc.logger).Warn("检索失败，降级到PostgreSQL",
			zap.String("reason", reason), zap.Error(searchErr))
	}
	metrics.IncCounterVec(metrics.SearchFallbackTotal, map[string]string{"reason": reason})

	books, err := uc.books.Filter(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FilterResult{Books: books, Page: f.Page, Size: f.Size, Source: SourceDatabase}, nil
}
