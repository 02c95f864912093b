package semantic

// technicalKeywords maps terms from a fixed technical vocabulary to a
// complexity weight. Heavier terms indicate work that tends to be harder to
// design and review than its text length suggests.
var technicalKeywords = map[string]float64{
	// architecture and distributed systems
	"architecture": 2.5, "distributed": 3, "consensus": 3, "replication": 3,
	"sharding": 3, "partition": 2.5, "consistency": 2.5, "availability": 2,
	"scalability": 2.5, "throughput": 2, "latency": 2,
	// concurrency
	"concurrency": 3, "concurrent": 2.5, "goroutine": 2.5, "thread": 2,
	"mutex": 2.5, "deadlock": 3, "race": 2.5, "atomic": 2.5, "lock": 2,
	// algorithms and data
	"algorithm": 2.5, "complexity": 2, "optimization": 2.5, "optimize": 2,
	"recursion": 2.5, "graph": 2, "index": 1.5, "cache": 1.5, "eviction": 2.5,
	"serialization": 2, "compression": 2, "encoding": 1.5,
	// persistence and transport
	"transaction": 2.5, "isolation": 2.5, "migration": 2, "schema": 1.5,
	"database": 1.5, "query": 1.5, "sql": 1.5, "replica": 2.5,
	"protocol": 2, "grpc": 2, "websocket": 2, "streaming": 2,
	// reliability and security
	"idempotent": 3, "retry": 1.5, "backoff": 2, "timeout": 1.5,
	"failover": 2.5, "rollback": 2, "encryption": 2.5, "authentication": 2,
	"authorization": 2, "vulnerability": 2.5,
	// general engineering
	"refactor": 2, "api": 1, "endpoint": 1, "middleware": 1.5,
	"pipeline": 1.5, "deployment": 1.5, "kubernetes": 2, "container": 1.5,
	"infrastructure": 2, "observability": 2, "instrumentation": 2,
}

// topicBuckets groups vocabulary terms into the short labels surfaced as
// topic tags. A record is tagged with every bucket it hits at least twice,
// or its single best bucket when nothing reaches two hits.
var topicBuckets = map[string][]string{
	"backend":  {"api", "endpoint", "database", "sql", "query", "schema", "transaction", "cache", "server", "middleware", "grpc"},
	"frontend": {"ui", "css", "component", "react", "render", "browser", "layout", "accessibility"},
	"infra":    {"deployment", "kubernetes", "container", "terraform", "pipeline", "infrastructure", "ci", "helm", "provisioning"},
	"data":     {"etl", "analytics", "warehouse", "ingestion", "dataset", "aggregation", "streaming", "serialization"},
	"testing":  {"test", "coverage", "mock", "fixture", "assertion", "regression", "flaky"},
	"security": {"authentication", "authorization", "encryption", "vulnerability", "token", "credential", "audit"},
	"platform": {"distributed", "consensus", "replication", "sharding", "failover", "concurrency", "observability"},
}

// complexExemplars is a small corpus of texts describing demonstrably complex
// engineering work. The embedding strategy scores complexity by how close a
// record's vector sits to this neighborhood.
var complexExemplars = []string{
	"Redesigned the replication protocol to use quorum-based consensus, handling network partitions and leader failover without losing committed writes.",
	"Rewrote the query planner to eliminate N+1 access patterns, adding cost-based join ordering and an adaptive index selection layer.",
	"Introduced a lock-free concurrent cache with per-shard eviction and epoch-based memory reclamation to remove a cross-request mutex bottleneck.",
	"Migrated the billing pipeline to an idempotent event-sourced model with exactly-once semantics across retries and consumer rebalances.",
	"Implemented incremental schema migration with dual-write verification and automatic rollback on checksum divergence across replicas.",
	"Built backpressure-aware streaming ingestion that degrades gracefully under load, with bounded queues and deadline-propagating cancellation.",
}
