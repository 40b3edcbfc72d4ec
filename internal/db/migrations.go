package db

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateUsers,
		migrationCreateSessions,
		migrationCreateProjects,
		migrationCreateTags,
		migrationCreateTasks,
		migrationCreateTaskTag,
	}

	types := columnTypes(db.dialect)
	for i, m := range migrations {
		for _, stmt := range strings.Split(types.Replace(m), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
		}
	}

	return nil
}

// columnTypes fills the dialect specific column types into the schema
func columnTypes(d Dialect) *strings.Replacer {
	if d == Postgres {
		return strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ref}}", "BIGINT",
			"{{ts}}", "TIMESTAMPTZ",
		)
	}
	return strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{ts}}", "TEXT",
	)
}

const migrationCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
    id {{pk}},
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL
);
`

const migrationCreateSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(36) PRIMARY KEY,
    user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at {{ts}} NOT NULL,
    revoked_at {{ts}},
    created_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`

const migrationCreateProjects = `
CREATE TABLE IF NOT EXISTS projects (
    id {{pk}},
    user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
`

const migrationCreateTags = `
CREATE TABLE IF NOT EXISTS tags (
    id {{pk}},
    user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(50) NOT NULL,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL,
    UNIQUE(user_id, name)
);
`

const migrationCreateTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id {{pk}},
    user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    project_id {{ref}} REFERENCES projects(id) ON DELETE SET NULL,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    due_date {{ts}},
    status VARCHAR(20) CHECK (status IS NULL OR status IN ('todo', 'in-progress', 'done')),
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL,
    UNIQUE(user_id, title)
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
`

const migrationCreateTaskTag = `
CREATE TABLE IF NOT EXISTS task_tag (
    task_id {{ref}} NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    tag_id {{ref}} NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (task_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_task_tag_tag ON task_tag(tag_id);
`
