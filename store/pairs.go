package store

import (
	"context"
	"fmt"

	"github.com/andreas-weise/individual-variation/pairing"
)

// LoadLinks returns the pairing relation ordered by second chunk.
func (s *Store) LoadLinks(ctx context.Context) ([]pairing.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT p_or_x, chu_id1, chu_id2 FROM chunk_pairs ORDER BY chu_id2, p_or_x, chu_id1")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk pairs: %w", err)
	}
	defer rows.Close()

	var links []pairing.Link
	for rows.Next() {
		var l pairing.Link
		var tag string
		if err := rows.Scan(&tag, &l.First, &l.Second); err != nil {
			return nil, fmt.Errorf("failed to scan chunk pair: %w", err)
		}
		l.Tag = pairing.Tag(tag)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during chunk pair iteration: %w", err)
	}
	return links, nil
}

// SaveLinks replaces the pairing relation with links.
func (s *Store) SaveLinks(ctx context.Context, links []pairing.Link) error {
	return s.withRetry(ctx, func(tx Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunk_pairs"); err != nil {
			return fmt.Errorf("failed to clear chunk pairs: %w", err)
		}
		q := s.rebind("INSERT INTO chunk_pairs (p_or_x, chu_id1, chu_id2) VALUES (?, ?, ?)")
		for _, l := range links {
			if _, err := tx.ExecContext(ctx, q, string(l.Tag), l.First, l.Second); err != nil {
				return fmt.Errorf("failed to insert chunk pair %d-%d: %w", l.First, l.Second, err)
			}
		}
		return nil
	})
}
