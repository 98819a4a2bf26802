package test_seeder

import (
	"context"
	"fmt"
)

// CountRows conta as linhas de uma tabela direto no banco, sem passar pelo storage.
func (ts TestSeeder) CountRows(ctx context.Context, table string) int {
	var count int
	if err := ts.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count); err != nil {
		panic(fmt.Sprintf("Seeder.CountRows failed: %v", err))
	}
	return count
}

// SelectAmenityIDs devolve os amenity_id ligados ao place na tabela de junção.
func (ts TestSeeder) SelectAmenityIDs(ctx context.Context, placeID string) []string {
	rows, err := ts.pool.Query(ctx, "SELECT amenity_id FROM place_amenity WHERE place_id = $1 ORDER BY amenity_id", placeID)
	if err != nil {
		panic(fmt.Sprintf("Seeder.SelectAmenityIDs failed: %v", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			panic(fmt.Sprintf("Seeder.SelectAmenityIDs failed: %v", err))
		}
		ids = append(ids, id)
	}
	return ids
}
