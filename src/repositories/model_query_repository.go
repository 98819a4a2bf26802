package repositories

import (
	"context"
	"fmt"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModelQueryRepository lê linhas e as devolve na forma serializada dos modelos
// (timestamps em texto), pronta para entities.Reconstruct.
type ModelQueryRepository struct {
	pool *pgxpool.Pool
}

func NewModelQueryRepository(pool *pgxpool.Pool) *ModelQueryRepository {
	return &ModelQueryRepository{pool: pool}
}

func (r *ModelQueryRepository) SelectByClass(ctx context.Context, schema *entities.Schema) ([]map[string]any, error) {
	return r.query(ctx, schema, selectSQL(schema, ""))
}

func (r *ModelQueryRepository) SelectByID(ctx context.Context, schema *entities.Schema, id string) (map[string]any, bool, error) {
	rows, err := r.query(ctx, schema, selectSQL(schema, "id = $1"), id)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// SelectRelated resolve a relação pelo índice da chave estrangeira ou pela tabela de junção.
func (r *ModelQueryRepository) SelectRelated(ctx context.Context, relation domain.Relation, ownerID string) ([]map[string]any, error) {
	target, ok := entities.Lookup(relation.Target)
	if !ok {
		return nil, fmt.Errorf("ModelQueryRepository.SelectRelated - %w: %s", domain.ErrUnknownClass, relation.Target)
	}

	switch relation.Kind {
	case domain.OneToMany:
		if !target.HasAttribute(relation.ForeignKey) {
			return nil, fmt.Errorf("ModelQueryRepository.SelectRelated - %s has no column %s", target.Class, relation.ForeignKey)
		}
		return r.query(ctx, target, selectSQL(target, relation.ForeignKey+" = $1"), ownerID)

	case domain.ManyToMany:
		return r.query(ctx, target, selectJoinSQL(relation, target), ownerID)
	}

	return nil, nil
}

func (r *ModelQueryRepository) query(ctx context.Context, schema *entities.Schema, query string, args ...any) ([]map[string]any, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ModelQueryRepository.query - %s query failed: %w", schema.Table, err)
	}
	defer rows.Close()

	result, err := scanModelRows(rows, schema)
	if err != nil {
		return nil, err
	}

	if err := r.loadListAttributes(ctx, schema, result); err != nil {
		return nil, err
	}

	return result, nil
}

func scanModelRows(rows pgx.Rows, schema *entities.Schema) ([]map[string]any, error) {
	columns := tableColumns(schema)
	var result []map[string]any

	for rows.Next() {
		var (
			id        pgtype.Text
			createdAt pgtype.Timestamp
			updatedAt pgtype.Timestamp
		)

		holders := make([]any, len(columns))
		for i, c := range columns {
			switch c.Kind {
			case entities.KindInt:
				holders[i] = &pgtype.Int8{}
			case entities.KindFloat:
				holders[i] = &pgtype.Float8{}
			default:
				holders[i] = &pgtype.Text{}
			}
		}

		dest := append([]any{&id, &createdAt, &updatedAt}, holders...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ModelQueryRepository.scan - failed to scan %s row: %w", schema.Table, err)
		}

		attrs := map[string]any{
			domain.ClassKey: schema.Class,
			"id":            id.String,
			"created_at":    domain.FormatTime(createdAt.Time),
			"updated_at":    domain.FormatTime(updatedAt.Time),
		}

		for i, c := range columns {
			switch holder := holders[i].(type) {
			case *pgtype.Int8:
				attrs[c.Name] = holder.Int64
			case *pgtype.Float8:
				attrs[c.Name] = holder.Float64
			case *pgtype.Text:
				attrs[c.Name] = holder.String
			}
		}

		result = append(result, attrs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ModelQueryRepository.scan - error iterating %s rows: %w", schema.Table, err)
	}

	return result, nil
}

// loadListAttributes preenche os atributos lista (ex.: amenity_ids) a partir das tabelas de junção.
func (r *ModelQueryRepository) loadListAttributes(ctx context.Context, schema *entities.Schema, result []map[string]any) error {
	if len(result) == 0 {
		return nil
	}

	for _, relation := range entities.Relations() {
		if relation.Kind != domain.ManyToMany || relation.Owner != schema.Class {
			continue
		}

		ownerIDs := make([]string, 0, len(result))
		byOwner := make(map[string]map[string]any, len(result))
		for _, attrs := range result {
			id := attrs["id"].(string)
			attrs[relation.ListAttribute] = []string{}
			ownerIDs = append(ownerIDs, id)
			byOwner[id] = attrs
		}

		query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s",
			relation.OwnerColumn, relation.TargetColumn, relation.JoinTable,
			relation.OwnerColumn, relation.OwnerColumn, relation.TargetColumn)

		rows, err := r.pool.Query(ctx, query, ownerIDs)
		if err != nil {
			return fmt.Errorf("ModelQueryRepository.loadListAttributes - %s query failed: %w", relation.JoinTable, err)
		}

		for rows.Next() {
			var ownerID, targetID string
			if err := rows.Scan(&ownerID, &targetID); err != nil {
				rows.Close()
				return fmt.Errorf("ModelQueryRepository.loadListAttributes - failed to scan %s: %w", relation.JoinTable, err)
			}
			if attrs, ok := byOwner[ownerID]; ok {
				attrs[relation.ListAttribute] = append(attrs[relation.ListAttribute].([]string), targetID)
			}
		}
		rows.Close()

		if err := rows.Err(); err != nil {
			return fmt.Errorf("ModelQueryRepository.loadListAttributes - error iterating %s: %w", relation.JoinTable, err)
		}
	}

	return nil
}
