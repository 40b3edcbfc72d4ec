package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/existflow/taskhub/internal/model"
)

// Summarize counts the user's tasks per status with a single grouped query.
// Tasks without a status are not part of any bucket nor of the total.
func (s *Store) Summarize(ctx context.Context, userID int64) (model.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return model.Summary{}, fmt.Errorf("summarize tasks: %w", err)
	}
	defer rows.Close()

	var sum model.Summary
	for rows.Next() {
		var status sql.NullString
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.Summary{}, err
		}
		switch model.Status(status.String) {
		case model.StatusTodo:
			sum.Todo = count
		case model.StatusInProgress:
			sum.InProgress = count
		case model.StatusDone:
			sum.Done = count
		}
	}
	if err := rows.Err(); err != nil {
		return model.Summary{}, err
	}

	sum.Total = sum.Todo + sum.InProgress + sum.Done
	return sum, nil
}
