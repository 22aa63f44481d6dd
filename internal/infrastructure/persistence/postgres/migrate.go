package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// schemaStatements 表结构DDL，全部可重复执行
// physical_exemplar按branch_id列表分区，每个分馆的分区由PartitionManager创建
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,

	`CREATE TABLE IF NOT EXISTS author (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS author_name_trgm_idx ON author USING gin (name gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS book_category (
		id uuid PRIMARY KEY,
		title text NOT NULL,
		description text,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL,
		CONSTRAINT book_category_title_key UNIQUE (title)
	)`,
	`CREATE INDEX IF NOT EXISTS book_category_title_trgm_idx ON book_category USING gin (title gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS branch (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS book (
		id uuid PRIMARY KEY,
		isbn_code text NOT NULL,
		editor text NOT NULL,
		edition integer NOT NULL CHECK (edition >= 1),
		type text NOT NULL CHECK (type IN ('physical', 'ebook', 'both')),
		publish_date date,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL,
		CONSTRAINT book_isbn_code_key UNIQUE (isbn_code)
	)`,

	`CREATE TABLE IF NOT EXISTS book_data (
		id uuid PRIMARY KEY,
		book_id uuid NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		title text NOT NULL,
		summary text,
		language text NOT NULL,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS book_data_book_id_idx ON book_data (book_id)`,
	`CREATE INDEX IF NOT EXISTS book_data_title_trgm_idx ON book_data USING gin (title gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS author_book_link (
		author_id uuid NOT NULL REFERENCES author (id) ON DELETE CASCADE,
		book_id uuid NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		PRIMARY KEY (author_id, book_id)
	)`,
	`CREATE INDEX IF NOT EXISTS author_book_link_book_id_idx ON author_book_link (book_id)`,

	`CREATE TABLE IF NOT EXISTS book_book_category_link (
		book_id uuid NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		book_category_id uuid NOT NULL REFERENCES book_category (id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, book_category_id)
	)`,

	`CREATE TABLE IF NOT EXISTS physical_exemplar (
		id uuid NOT NULL,
		available boolean NOT NULL DEFAULT true,
		room integer NOT NULL CHECK (room >= 1),
		floor integer NOT NULL CHECK (floor >= 1),
		bookshelf integer NOT NULL CHECK (bookshelf >= 1),
		book_id uuid NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		branch_id uuid NOT NULL REFERENCES branch (id) ON DELETE CASCADE,
		version integer NOT NULL CHECK (version >= 1),
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		created_by text NOT NULL,
		updated_by text NOT NULL,
		PRIMARY KEY (id, branch_id),
		CONSTRAINT physical_exemplar_book_branch_key UNIQUE (book_id, branch_id)
	) PARTITION BY LIST (branch_id)`,
}

// Migrate 执行建表DDL
// 多个进程同时启动时，并发建表产生的重复对象错误视为成功
func Migrate(ctx context.Context, db *gorm.DB) error {
	for i, stmt := range schemaStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			if isDuplicateObject(err) {
				continue
			}
			return fmt.Errorf("执行第%d条DDL失败: %w", i+1, err)
		}
	}
	return nil
}
