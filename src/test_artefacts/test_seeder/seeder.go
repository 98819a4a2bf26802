package test_seeder

import (
	"context"
	"fmt"
	"strings"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TestSeeder struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) TestSeeder {
	return TestSeeder{pool: pool}
}

// Tables lista as tabelas geradas pelo schema: as de junção e depois uma por classe.
func Tables() []string {
	var tables []string
	for _, relation := range entities.Relations() {
		if relation.Kind == domain.ManyToMany {
			tables = append(tables, relation.JoinTable)
		}
	}
	for _, schema := range entities.Schemas() {
		tables = append(tables, schema.Table)
	}
	return tables
}

// TruncateTables esvazia todas as tabelas do hbnb em um único comando.
func (ts TestSeeder) TruncateTables(ctx context.Context) {
	statement := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(Tables(), ", "))

	if _, err := ts.pool.Exec(ctx, statement); err != nil {
		panic(fmt.Sprintf("Failed to truncate tables: %v", err))
	}
}
