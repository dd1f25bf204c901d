// Package router answers variable queries from the index when the
// indexed copy is still fresh, and falls back to parsing the result
// files directly when it is not. Parsed result sets are kept in a
// bounded LRU cache keyed by path and modification time.
package router

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/index"
	"github.com/dlemos/amekit/internal/logger"
)

var log = logger.ForComponent("router")

const resultCacheSize = 32

type Router struct {
	index    *index.IndexStore
	cache    *lru.Cache[string, *ame.ResultSet]
	timeouts TimeoutConfig
}

func NewRouter(indexStore *index.IndexStore) *Router {
	return NewRouterWithConfig(indexStore, DefaultTimeoutConfig())
}

func NewRouterWithConfig(indexStore *index.IndexStore, timeouts TimeoutConfig) *Router {
	cache, _ := lru.New[string, *ame.ResultSet](resultCacheSize)
	return &Router{
		index:    indexStore,
		cache:    cache,
		timeouts: timeouts,
	}
}

// cacheKey ties a cached result set to one on-disk generation of the
// file, so a rewritten file misses instead of serving stale samples.
func cacheKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size()), nil
}

// LoadResults returns the parsed result set for the given system
// reference, serving from the cache when the file has not changed.
func (r *Router) LoadResults(ctx context.Context, ref string) (*ame.ResultSet, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	resultsPath := ame.SystemFile(ref, "_.results")

	key, err := cacheKey(resultsPath)
	if err == nil {
		if rs, ok := r.cache.Get(key); ok {
			log.Debug("cache hit", "path", resultsPath)
			return rs, true, nil
		}
	}

	rs, err := ame.LoadResults(ref)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		r.cache.Add(key, rs)
	}
	return rs, false, nil
}

// QueryVars finds variables matching the query across one system.
// The query accepts the limited wildcard forms as well as plain
// substrings.
func (r *Router) QueryVars(ctx context.Context, ref string, query string, opts QueryOptions) (*QueryResult[*VarInfo], error) {
	start := time.Now()
	log.Debug("querying variables", "ref", ref, "query", query)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resultsPath := ame.SystemFile(ref, "_.results")

	if !opts.SkipIndex && r.index != nil {
		indexCtx, indexCancel := WithTimeout(ctx, r.timeouts.Index)
		result, err := r.queryIndexVars(indexCtx, resultsPath, query, opts)
		indexCancel()

		if err == nil && result != nil && len(result.Items) > 0 {
			fresh, err := IsFileFresh(r.index, resultsPath)
			if err != nil {
				fresh = false
			}
			if fresh {
				result.Latency = time.Since(start)
				result.Cached = true
				log.Debug("query completed", "source", result.Source, "count", result.Count, "latency_ms", result.Latency.Milliseconds())
				return result, nil
			}
		}
	}

	parseCtx, parseCancel := WithTimeout(ctx, r.timeouts.Parse)
	result, allVars, err := r.queryParsedVars(parseCtx, ref, query, opts)
	parseCancel()
	if err != nil {
		return nil, err
	}

	result.Latency = time.Since(start)
	result.Fallback = true

	if opts.UpdateIndex && r.index != nil {
		r.updateIndex(resultsPath, ref, allVars)
	}

	log.Debug("query completed", "source", result.Source, "count", result.Count, "latency_ms", result.Latency.Milliseconds())
	return result, nil
}

func (r *Router) queryIndexVars(ctx context.Context, resultsPath string, query string, opts QueryOptions) (*QueryResult[*VarInfo], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := r.index.GetFile(resultsPath)
	if err != nil || file == nil {
		return nil, err
	}

	vars, err := r.index.GetVariablesByFile(file.ID)
	if err != nil {
		return nil, err
	}

	matched := filterVars(vars, query, opts.MaxResults)
	return &QueryResult[*VarInfo]{
		Items:  matched,
		Count:  len(matched),
		Source: SourceIndex,
	}, nil
}

func (r *Router) queryParsedVars(ctx context.Context, ref string, query string, opts QueryOptions) (*QueryResult[*VarInfo], []*VarInfo, error) {
	rs, cached, err := r.LoadResults(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	vars := varsFromResultSet(rs)
	matched := filterVars(vars, query, opts.MaxResults)
	return &QueryResult[*VarInfo]{
		Items:  matched,
		Count:  len(matched),
		Source: SourceParse,
		Cached: cached,
	}, vars, nil
}

func varsFromResultSet(rs *ame.ResultSet) []*VarInfo {
	vars := make([]*VarInfo, 0, len(rs.Names))
	for col, title := range rs.Names {
		name, unit := index.SplitUnit(title)
		vars = append(vars, &VarInfo{
			Name:   name,
			Unit:   unit,
			Col:    col,
			Points: len(rs.Data[col]),
		})
	}
	return vars
}

func filterVars(vars []*VarInfo, query string, limit int) []*VarInfo {
	if limit <= 0 {
		limit = len(vars)
	}

	matched := make([]*VarInfo, 0, len(vars))
	for _, v := range vars {
		if matchVar(v, query) {
			matched = append(matched, v)
			if len(matched) >= limit {
				break
			}
		}
	}
	return matched
}

func matchVar(v *VarInfo, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(query, "*") {
		return ame.Match(v.Name, query)
	}
	return strings.Contains(strings.ToLower(v.Name), strings.ToLower(query))
}

// updateIndex writes freshly parsed variables back so the next query
// can be served without touching the file.
func (r *Router) updateIndex(resultsPath, ref string, vars []*VarInfo) {
	hasher := &FileHasher{}
	hash, err := hasher.ComputeHash(resultsPath)
	if err != nil {
		log.Debug("index update skipped", "path", resultsPath, "error", err)
		return
	}

	sysname, _ := ame.ExtractSystemName(ref)
	fileID, err := r.index.UpsertFile(&index.IndexedFile{
		Path:        resultsPath,
		Kind:        index.KindResults,
		System:      sysname,
		ContentHash: hash,
		Status:      index.StatusIndexed,
	})
	if err != nil {
		log.Warn("index update failed", "path", resultsPath, "error", err)
		return
	}

	if err := r.index.InsertVariables(fileID, vars); err != nil {
		log.Warn("index update failed", "path", resultsPath, "error", err)
	}
}
