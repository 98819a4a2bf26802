package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork é o conjunto pendente que um Save torna durável de uma vez.
// Upserts e Deletes devem vir em ordem de dependência (ver entities.Schemas).
type UnitOfWork struct {
	Upserts []domain.Model
	Deletes []domain.Model
}

func (w UnitOfWork) IsEmpty() bool {
	return len(w.Upserts) == 0 && len(w.Deletes) == 0
}

type ModelWriteRepository struct {
	writePool       *pgxpool.Pool
	cachedQueryRepo *CachedModelQueryRepository
	logger          *slog.Logger
}

func NewModelWriteRepository(logger *slog.Logger, writePool *pgxpool.Pool, cachedQueryRepo *CachedModelQueryRepository) *ModelWriteRepository {
	return &ModelWriteRepository{writePool: writePool, cachedQueryRepo: cachedQueryRepo, logger: logger}
}

// Apply executa remoções, upserts e sincronização das tabelas de junção em uma única transação.
// Em erro nada é visível: o rollback desfaz tudo.
func (r *ModelWriteRepository) Apply(ctx context.Context, work UnitOfWork) ([]domain.ModelChange, error) {
	if work.IsEmpty() {
		return nil, nil
	}

	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ModelWriteRepository.Apply - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	var changes []domain.ModelChange
	now := domain.Now()

	// cada item enfileirado sabe ler o próprio resultado
	var readers []func(pgx.BatchResults) error

	for _, m := range work.Deletes {
		schema, ok := entities.Lookup(m.ClassName())
		if !ok {
			return nil, fmt.Errorf("ModelWriteRepository.Apply - %w: %s", domain.ErrUnknownClass, m.ClassName())
		}

		batch.Queue(fmt.Sprintf("DELETE FROM %s WHERE id = $1", schema.Table), m.GetID())

		deleted := m
		readers = append(readers, func(results pgx.BatchResults) error {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("delete %s: %w", deleted.Key(), describe(err))
			}
			if tag.RowsAffected() > 0 {
				changes = append(changes, domain.ModelChange{
					Type: domain.ChangeDeleted, Key: deleted.Key(), Class: deleted.ClassName(), ID: deleted.GetID(), OccurredAt: now,
				})
			}
			return nil
		})
	}

	for _, m := range work.Upserts {
		schema, ok := entities.Lookup(m.ClassName())
		if !ok {
			return nil, fmt.Errorf("ModelWriteRepository.Apply - %w: %s", domain.ErrUnknownClass, m.ClassName())
		}

		attrs := m.ToMap()
		batch.Queue(upsertSQL(schema), upsertArgs(schema, m, attrs)...)

		upserted := m
		readers = append(readers, func(results pgx.BatchResults) error {
			var inserted bool
			if err := results.QueryRow().Scan(&inserted); err != nil {
				return fmt.Errorf("upsert %s: %w", upserted.Key(), describe(err))
			}
			changeType := domain.ChangeUpdated
			if inserted {
				changeType = domain.ChangeCreated
			}
			changes = append(changes, domain.ModelChange{
				Type: changeType, Key: upserted.Key(), Class: upserted.ClassName(), ID: upserted.GetID(), Attributes: attrs, OccurredAt: now,
			})
			return nil
		})

		readers = append(readers, queueLinkSync(batch, schema, m, attrs)...)
	}

	results := tx.SendBatch(ctx, batch)
	for _, read := range readers {
		if err := read(results); err != nil {
			results.Close()
			return nil, fmt.Errorf("ModelWriteRepository.Apply - %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("ModelWriteRepository.Apply - failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ModelWriteRepository.Apply - failed to commit: %w", err)
	}

	if r.cachedQueryRepo != nil {
		if err := r.cachedQueryRepo.InvalidateAll(ctx); err != nil {
			r.logger.Error("ModelWriteRepository.Apply - failed to invalidate cache", "error", err)
		}
	}

	return changes, nil
}

func upsertArgs(schema *entities.Schema, m domain.Model, attrs map[string]any) []any {
	createdAt := m.GetCreatedAt().UTC()
	updatedAt := m.GetUpdatedAt().UTC()
	args := []any{m.GetID(), postgres.NewNullTime(&createdAt), postgres.NewNullTime(&updatedAt)}

	for _, c := range tableColumns(schema) {
		value := attrs[c.Name]

		switch c.Kind {
		case entities.KindInt:
			i, _ := value.(int)
			args = append(args, int64(i))
		case entities.KindFloat:
			f, _ := value.(float64)
			if c.Nullable {
				args = append(args, postgres.NewNullFloat(&f))
			} else {
				args = append(args, f)
			}
		default:
			s, _ := value.(string)
			if c.Nullable {
				args = append(args, postgres.NewNullString(&s))
			} else {
				args = append(args, s)
			}
		}
	}

	return args
}

// queueLinkSync regrava as linhas de junção do dono a partir do atributo lista.
func queueLinkSync(batch *pgx.Batch, schema *entities.Schema, m domain.Model, attrs map[string]any) []func(pgx.BatchResults) error {
	var readers []func(pgx.BatchResults) error

	for _, relation := range entities.Relations() {
		if relation.Kind != domain.ManyToMany || relation.Owner != schema.Class {
			continue
		}

		ids, _ := attrs[relation.ListAttribute].([]string)
		if ids == nil {
			ids = []string{}
		}

		batch.Queue(fmt.Sprintf("DELETE FROM %s WHERE %s = $1", relation.JoinTable, relation.OwnerColumn), m.GetID())
		target, _ := entities.Lookup(relation.Target)

		// ids que não existem mais na tabela alvo são descartados em vez de violar a FK
		batch.Queue(fmt.Sprintf(
			"INSERT INTO %s (%s, %s) SELECT $1::varchar, t.id FROM %s t WHERE t.id = ANY($2::varchar[]) ON CONFLICT DO NOTHING",
			relation.JoinTable, relation.OwnerColumn, relation.TargetColumn, target.Table,
		), m.GetID(), ids)

		key, table := m.Key(), relation.JoinTable
		readers = append(readers,
			func(results pgx.BatchResults) error {
				if _, err := results.Exec(); err != nil {
					return fmt.Errorf("unlink %s from %s: %w", key, table, err)
				}
				return nil
			},
			func(results pgx.BatchResults) error {
				if _, err := results.Exec(); err != nil {
					return fmt.Errorf("link %s in %s: %w", key, table, describe(err))
				}
				return nil
			},
		)
	}

	return readers
}

// describe acrescenta o motivo legível aos erros de constraint mais comuns.
func describe(err error) error {
	switch {
	case postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("references a missing parent: %w", err)
	case postgres.IsUniqueViolation(err):
		return fmt.Errorf("duplicated key: %w", err)
	case postgres.IsNoRows(err):
		return fmt.Errorf("statement returned no row: %w", err)
	}
	return err
}
