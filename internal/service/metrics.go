package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "post_revisions"

var (
	// historyRequests 历史查询次数，result=ok|invalid|denied|error
	historyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "history_requests_total",
		Help:      "History retrievals by outcome.",
	}, []string{"result"})

	// migratedPosts 完成旧格式迁移的帖子数
	migratedPosts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "legacy_migrations_total",
		Help:      "Posts whose legacy history was converted to the current format.",
	})

	// migratedEntries 迁移的条目数
	migratedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "legacy_migrated_entries_total",
		Help:      "Legacy entries converted to the current format.",
	})

	// corruptEntries 解析失败被跳过的条目
	corruptEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "corrupt_entries_total",
		Help:      "Stored entries skipped because they could not be decoded.",
	}, []string{"format"})

	// archivedEntries 编辑钩子归档的条目
	archivedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "archived_entries_total",
		Help:      "Prior post states archived by the edit hook.",
	})

	// purges 删除操作，kind=entry|all
	purges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "purges_total",
		Help:      "Purge operations by kind and outcome.",
	}, []string{"kind", "result"})

	// storeFailures 存储错误，按操作区分
	storeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "store_failures_total",
		Help:      "Store errors by operation.",
	}, []string{"operation"})
)
