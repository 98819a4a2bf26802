package repositories

import (
	"fmt"
	"strings"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
)

// tableColumns são as colunas físicas da tabela da classe: id, timestamps e
// os atributos declarados, exceto os atributos lista de muitos-para-muitos.
func tableColumns(schema *entities.Schema) []entities.Column {
	columns := make([]entities.Column, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		if _, ok := entities.ListRelationOf(schema.Class, c.Name); ok {
			continue
		}
		columns = append(columns, c)
	}
	return columns
}

func columnNames(schema *entities.Schema) []string {
	names := []string{"id", "created_at", "updated_at"}
	for _, c := range tableColumns(schema) {
		names = append(names, c.Name)
	}
	return names
}

func columnDDL(schema *entities.Schema, c entities.Column) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")

	switch c.Kind {
	case entities.KindInt:
		b.WriteString("INTEGER")
	case entities.KindFloat:
		b.WriteString("DOUBLE PRECISION")
	default:
		if c.Size > 0 {
			fmt.Fprintf(&b, "VARCHAR(%d)", c.Size)
		} else {
			b.WriteString("TEXT")
		}
	}

	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
		if c.Kind == entities.KindInt || c.Kind == entities.KindFloat {
			b.WriteString(" DEFAULT 0")
		}
	}

	if relation, ok := entities.ForeignKeyOf(schema.Class, c.Name); ok {
		owner, _ := entities.Lookup(relation.Owner)
		fmt.Fprintf(&b, " REFERENCES %s(id)", owner.Table)
		if relation.Cascade {
			b.WriteString(" ON DELETE CASCADE")
		}
	}

	return b.String()
}

// createTableSQL gera o DDL idempotente da tabela da classe.
func createTableSQL(schema *entities.Schema) string {
	lines := []string{
		"id VARCHAR(60) PRIMARY KEY",
		"created_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')",
		"updated_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')",
	}
	for _, c := range tableColumns(schema) {
		lines = append(lines, columnDDL(schema, c))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", schema.Table, strings.Join(lines, ",\n\t"))
}

// createIndexSQL indexa as chaves estrangeiras, que é o que torna Related uma busca indexada.
func createIndexSQL(schema *entities.Schema) []string {
	var statements []string
	for _, c := range tableColumns(schema) {
		if _, ok := entities.ForeignKeyOf(schema.Class, c.Name); !ok {
			continue
		}
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", schema.Table, c.Name, schema.Table, c.Name))
	}
	return statements
}

func createJoinTableSQL(relation domain.Relation) string {
	owner, _ := entities.Lookup(relation.Owner)
	target, _ := entities.Lookup(relation.Target)

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s VARCHAR(60) NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	%s VARCHAR(60) NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	PRIMARY KEY (%s, %s)
)`,
		relation.JoinTable,
		relation.OwnerColumn, owner.Table,
		relation.TargetColumn, target.Table,
		relation.OwnerColumn, relation.TargetColumn,
	)
}

// upsertSQL insere ou atualiza pelo id. RETURNING (xmax = 0) diz se a linha é nova.
func upsertSQL(schema *entities.Schema) string {
	names := columnNames(schema)

	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, 0, len(names)-1)
	for _, name := range names[1:] {
		if name == "created_at" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s RETURNING (xmax = 0) AS inserted",
		schema.Table,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

func selectSQL(schema *entities.Schema, where string) string {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columnNames(schema), ", "), schema.Table)
	if where != "" {
		query += " WHERE " + where
	}
	return query + " ORDER BY created_at, id"
}

func selectJoinSQL(relation domain.Relation, target *entities.Schema) string {
	qualified := make([]string, 0, len(columnNames(target)))
	for _, name := range columnNames(target) {
		qualified = append(qualified, "t."+name)
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s t JOIN %s j ON j.%s = t.id WHERE j.%s = $1 ORDER BY t.created_at, t.id",
		strings.Join(qualified, ", "),
		target.Table,
		relation.JoinTable,
		relation.TargetColumn,
		relation.OwnerColumn,
	)
}

// dropTablesSQL remove as tabelas em ordem inversa de dependência.
func dropTablesSQL() []string {
	var statements []string
	for _, relation := range entities.Relations() {
		if relation.Kind == domain.ManyToMany {
			statements = append(statements, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", relation.JoinTable))
		}
	}

	schemas := entities.Schemas()
	for i := len(schemas) - 1; i >= 0; i-- {
		statements = append(statements, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", schemas[i].Table))
	}
	return statements
}
