package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// The two embedding tables. Vectors are stored as little-endian float32
// BLOBs; the whole table is decoded into memory at startup.
const (
	SemanticTable = "semantic_vectors"
	GraphTable    = "graph_vectors"
)

func validVectorTable(table string) error {
	if table != SemanticTable && table != GraphTable {
		return fmt.Errorf("unknown vector table %q", table)
	}
	return nil
}

// LoadVectors reads an entire embedding table in movie-id order, returning
// parallel id and vector slices.
func (s *Store) LoadVectors(ctx context.Context, table string) ([]int64, [][]float32, error) {
	if err := validVectorTable(table); err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT movie_id, embedding FROM "+table+" ORDER BY movie_id")
	if err != nil {
		return nil, nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	var vectors [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		vec, err := decodeFloat32s(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding embedding for movie %d: %w", id, err)
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	return ids, vectors, rows.Err()
}

// InsertVectors writes embeddings for the given movie ids in one
// transaction. ids and vectors must be parallel.
func (s *Store) InsertVectors(table string, ids []int64, vectors [][]float32) error {
	if err := validVectorTable(table); err != nil {
		return err
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("%d ids but %d vectors", len(ids), len(vectors))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning vector transaction: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO " + table + " (movie_id, embedding) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(id, encodeFloat32s(vectors[i])); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting vector for movie %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
