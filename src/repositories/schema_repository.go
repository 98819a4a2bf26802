package repositories

import (
	"context"
	"fmt"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SchemaRepository struct {
	writePool *pgxpool.Pool
}

func NewSchemaRepository(writePool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{writePool: writePool}
}

// EnsureSchema cria tabelas, índices e tabelas de junção que ainda não existem.
func (r *SchemaRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("SchemaRepository.EnsureSchema - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, schema := range entities.Schemas() {
		if _, err := tx.Exec(ctx, createTableSQL(schema)); err != nil {
			return fmt.Errorf("SchemaRepository.EnsureSchema - failed to create table %s: %w", schema.Table, err)
		}
		for _, statement := range createIndexSQL(schema) {
			if _, err := tx.Exec(ctx, statement); err != nil {
				return fmt.Errorf("SchemaRepository.EnsureSchema - failed to create index on %s: %w", schema.Table, err)
			}
		}
	}

	for _, relation := range entities.Relations() {
		if relation.Kind != domain.ManyToMany {
			continue
		}
		if _, err := tx.Exec(ctx, createJoinTableSQL(relation)); err != nil {
			return fmt.Errorf("SchemaRepository.EnsureSchema - failed to create join table %s: %w", relation.JoinTable, err)
		}
	}

	return tx.Commit(ctx)
}

// DropSchema apaga todas as tabelas. Usado apenas com HBNB_ENV=test.
func (r *SchemaRepository) DropSchema(ctx context.Context) error {
	for _, statement := range dropTablesSQL() {
		if _, err := r.writePool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("SchemaRepository.DropSchema - %q failed: %w", statement, err)
		}
	}
	return nil
}
