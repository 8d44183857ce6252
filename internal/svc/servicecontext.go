package svc

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	domaincache "finsight-api/internal/cache"
	"finsight-api/internal/config"
	"finsight-api/internal/history"
	"finsight-api/internal/repo"
	"finsight-api/pkg/answer"
	"finsight-api/pkg/enrich"
	"finsight-api/pkg/journal"
	llmpkg "finsight-api/pkg/llm"
	"finsight-api/pkg/prompt"
)

type ServiceContext struct {
	Config config.Config

	// Storage. Nil when the DSN is absent: handlers then run without history.
	DBConn sqlx.SqlConn
	Redis  *redis.Redis
	Cache  cache.Cache
	TTL    domaincache.TTLSet
	Repos  *repo.Set

	History *history.Reconciler

	LLM       *llmpkg.Client
	Generator *answer.Generator
	Enricher  *enrich.Enricher

	// Instruction templates keyed by focus mode, loaded from PromptDir.
	// Logic falls back to built-in instructions for missing modes.
	Prompts       map[string]*prompt.Template
	PromptDigests map[string]string

	Journal *journal.Writer
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    domaincache.NewTTLSet(c.TTL),
	}

	if len(c.Redis.Host) > 0 {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		svc.Redis = rds
		svc.Cache = cache.NewNode(rds, syncx.NewSingleFlight(), cache.NewStat("finsight"), sqlx.ErrNotFound)
	}

	if c.Postgres.DSN != "" {
		svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		repos, err := repo.New(repo.Dependencies{
			DBConn: svc.DBConn,
			Cache:  svc.Cache,
			TTL:    svc.TTL,
		})
		if err != nil {
			log.Fatalf("failed to build repositories: %v", err)
		}
		svc.Repos = repos
		svc.History = history.NewReconciler(repos.Chats)
	}

	if c.LLM.Value != nil {
		llmCfg := c.LLM.Value
		// Test environment routes to a low-cost model for good-enough quality.
		if c.IsTestEnv() && llmCfg.DefaultModel == "" {
			llmCfg.DefaultModel = "gpt-4o-mini"
		}
		client, err := llmpkg.NewClient(llmCfg)
		if err != nil {
			log.Fatalf("failed to build llm client: %v", err)
		}
		svc.LLM = client

		genOpts := []answer.GeneratorOption{}
		if c.Search.BaseURL != "" {
			searx, err := answer.NewSearxClient(c.Search.BaseURL, answer.WithMaxResults(c.Search.MaxResults))
			if err != nil {
				log.Fatalf("failed to build search client: %v", err)
			}
			genOpts = append(genOpts, answer.WithSearcher(searx))
		}
		gen, err := answer.NewGenerator(client, genOpts...)
		if err != nil {
			log.Fatalf("failed to build answer generator: %v", err)
		}
		svc.Generator = gen
	}

	if c.Market.Value != nil {
		enrichOpts := []enrich.EnricherOption{}
		if c.Market.Value.Enabled() {
			provider, err := c.Market.Value.NewProvider()
			if err != nil {
				log.Fatalf("failed to build market provider: %v", err)
			}
			seriesCache := domaincache.NewSeriesCache(svc.Redis, svc.TTL)
			enrichOpts = append(enrichOpts, enrich.WithProvider(domaincache.NewCachedProvider(provider, seriesCache)))
		}
		enricher, err := enrich.NewEnricher(c.Market.Value, enrichOpts...)
		if err != nil {
			log.Fatalf("failed to build market enricher: %v", err)
		}
		svc.Enricher = enricher
	}

	if c.PromptDir != "" {
		svc.Prompts = make(map[string]*prompt.Template)
		svc.PromptDigests = make(map[string]string)
		entries, err := os.ReadDir(c.PromptDir)
		if err != nil {
			log.Fatalf("failed to read prompt dir %s: %v", c.PromptDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".tmpl" {
				continue
			}
			mode := strings.TrimSuffix(entry.Name(), ".tmpl")
			tmpl, err := prompt.NewTemplate(filepath.Join(c.PromptDir, entry.Name()), nil)
			if err != nil {
				log.Fatalf("failed to parse prompt template %s: %v", entry.Name(), err)
			}
			svc.Prompts[mode] = tmpl
			svc.PromptDigests[mode] = tmpl.Digest()
		}
	}

	if c.JournalDir != "" {
		svc.Journal = journal.NewWriter(c.JournalDir)
	}

	return svc
}
