// Package search 图书检索索引（Elasticsearch）
//
// 每本图书一个文档，以图书id为文档id，作者、分类、本地化数据内嵌为nested数组。
// 关系型存储是权威数据源，索引是尽力而为的投影。
package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// NewClient 创建Elasticsearch客户端
// 启动时按指数退避探活，最多等待1分钟；探活失败不影响读路径的关系型降级
func NewClient(ctx context.Context, cfg config.ElasticsearchConfig, log *zap.Logger) (*elasticsearch.Client, error) {
	return newClient(ctx, cfg, nil, log)
}

func newClient(ctx context.Context, cfg config.ElasticsearchConfig, transport http.RoundTripper, log *zap.Logger) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Elasticsearch客户端失败: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := client.Ping(client.Ping.WithContext(pingCtx))
		if err != nil {
			log.Warn("Elasticsearch探活失败，稍后重试", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			err := fmt.Errorf("Elasticsearch探活返回%s", res.Status())
			log.Warn("Elasticsearch探活失败，稍后重试", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("Elasticsearch不可用: %w", err)
	}

	log.Info("Elasticsearch连接成功", zap.Strings("addresses", cfg.Addresses))
	return client, nil
}
