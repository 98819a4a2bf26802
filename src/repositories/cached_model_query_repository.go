package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/infra/redis"
)

// CachedModelQueryRepository guarda no redis a listagem completa de cada classe.
// Qualquer commit invalida todas as classes, porque as cascatas atravessam tabelas.
type CachedModelQueryRepository struct {
	queryRepository *ModelQueryRepository
	redisClient     *redis.RedisClient
	logger          *slog.Logger
}

func NewCachedModelQueryRepository(
	logger *slog.Logger,
	queryRepository *ModelQueryRepository,
	redisClient *redis.RedisClient,
) *CachedModelQueryRepository {
	return &CachedModelQueryRepository{
		queryRepository: queryRepository,
		redisClient:     redisClient,
		logger:          logger,
	}
}

func classCacheKey(class string) string {
	return "hbnb:models:" + class
}

func (r *CachedModelQueryRepository) SelectByClass(ctx context.Context, schema *entities.Schema) ([]map[string]any, error) {
	if r.redisClient == nil {
		return r.queryRepository.SelectByClass(ctx, schema)
	}

	cacheKey := classCacheKey(schema.Class)

	cached, found, err := r.getFromCache(ctx, cacheKey)
	if found && err == nil {
		r.logger.Debug("Cache HIT", "key", cacheKey)
		return cached, nil
	}
	if err != nil {
		// erro de cache não derruba a leitura: segue para o postgres
		r.logger.Warn("Cache error", "key", cacheKey, "error", err)
	}

	rows, err := r.queryRepository.SelectByClass(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}

	r.setInCache(ctx, cacheKey, rows)
	return rows, nil
}

func (r *CachedModelQueryRepository) SelectByID(ctx context.Context, schema *entities.Schema, id string) (map[string]any, bool, error) {
	return r.queryRepository.SelectByID(ctx, schema, id)
}

func (r *CachedModelQueryRepository) SelectRelated(ctx context.Context, relation domain.Relation, ownerID string) ([]map[string]any, error) {
	return r.queryRepository.SelectRelated(ctx, relation, ownerID)
}

func (r *CachedModelQueryRepository) getFromCache(ctx context.Context, cacheKey string) ([]map[string]any, bool, error) {
	cachedJSON, found, err := r.redisClient.GetKey(ctx, cacheKey)
	if !found || err != nil {
		return nil, found, err
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(cachedJSON), &rows); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return rows, true, nil
}

func (r *CachedModelQueryRepository) setInCache(ctx context.Context, cacheKey string, rows []map[string]any) {
	if rows == nil {
		rows = []map[string]any{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		r.logger.Error("Failed to marshal cache data", "key", cacheKey, "error", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.redisClient.SetKey(ctxWithTimeout, cacheKey, string(data)); err != nil {
		r.logger.Error("Failed to set cache", "key", cacheKey, "error", err)
		return
	}

	r.logger.Debug("Cache SET", "key", cacheKey, "rows", len(rows))
}

// InvalidateAll apaga a listagem de todas as classes.
func (r *CachedModelQueryRepository) InvalidateAll(ctx context.Context) error {
	if r.redisClient == nil {
		return nil
	}

	keys := make([]string, 0, len(entities.Schemas()))
	for _, class := range entities.ClassNames() {
		keys = append(keys, classCacheKey(class))
	}

	return r.redisClient.InvalidateKeys(ctx, keys)
}
