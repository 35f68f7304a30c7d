package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	"github.com/Gichie/CloudFileStorage/internal/repository/postgres"
)

// PostgresNodeRepository implements the NodeRepository interface on a single
// nodes table holding both variants. Sibling uniqueness relies on a
// UNIQUE (owner_id, parent_id, name) NULLS NOT DISTINCT constraint so that
// root-level siblings (parent_id NULL) are covered too.
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) storageRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const nodeColumns = "id, owner_id, parent_id, node_type, name, size_bytes, storage_key, content_type, created_at, updated_at"

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Type,
		&node.Name,
		&node.SizeBytes,
		&node.StorageKey,
		&node.ContentType,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Create inserts a new node. The caller assigns the ID so that file storage
// keys (derived from the id) can be minted before the row exists.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, parent_id, node_type, name, size_bytes, storage_key, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.OwnerID,
		node.ParentID,
		node.Type,
		node.Name,
		node.SizeBytes,
		node.StorageKey,
		node.ContentType,
		node.CreatedAt,
		node.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			// Query for the existing sibling to get its ID
			existing, queryErr := r.GetChildByName(ctx, node.OwnerID, node.ParentID, node.Name)
			if queryErr != nil || existing == nil {
				return fmt.Errorf("node '%s' already exists in this location: %w", node.Name, domain.ErrConflict)
			}

			return &domain.ConflictError{
				Message:      fmt.Sprintf("a %s named %q already exists in this location", existing.Type, node.Name),
				ResourceType: string(existing.Type),
				ResourceID:   existing.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent directory: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node scoped to its owner
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return node, nil
}

// GetByIDAny retrieves a node by id only (no owner scoping).
// Use when the caller must distinguish cross-owner references from missing ones.
func (r *PostgresNodeRepository) GetByIDAny(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return node, nil
}

// GetChildByName finds a direct child by exact name, regardless of variant.
// Returns (nil, nil) when no such child exists.
func (r *PostgresNodeRepository) GetChildByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.Node, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND name = $2 AND parent_id IS NULL
		`, nodeColumns, r.tables.Nodes)
		args = append(args, ownerID, name)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND name = $2 AND parent_id = $3
		`, nodeColumns, r.tables.Nodes)
		args = append(args, ownerID, name, *parentID)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get child by name: %w", err)
	}

	return node, nil
}

// Update persists name and parent changes only - size, storage key and type
// are immutable after creation
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		node.ParentID,
		node.Name,
		node.UpdatedAt,
		node.ID,
		node.OwnerID,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existing, queryErr := r.GetChildByName(ctx, node.OwnerID, node.ParentID, node.Name)
			if queryErr != nil || existing == nil {
				return fmt.Errorf("node '%s' already exists in this location: %w", node.Name, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a %s named %q already exists in this location", existing.Type, node.Name),
				ResourceType: string(existing.Type),
				ResourceID:   existing.ID,
			}
		}
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single node row
func (r *PostgresNodeRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("cannot delete directory with children: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists the immediate children of a directory (nil = root),
// directories first, then by name
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL
			ORDER BY node_type DESC, name ASC
		`, nodeColumns, r.tables.Nodes)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND parent_id = $2
			ORDER BY node_type DESC, name ASC
		`, nodeColumns, r.tables.Nodes)
		args = append(args, ownerID, *parentID)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// CreateDirIfNotExists inserts a directory, reconciling concurrent creates:
// on a uniqueness violation the now-existing sibling is re-read and returned
// instead of failing. The insert is attempted first so unrelated uploads are
// never serialized behind a lock.
func (r *PostgresNodeRepository) CreateDirIfNotExists(ctx context.Context, ownerID string, parentID *string, name string) (*models.Node, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, parent_id, node_type, name, size_bytes, storage_key, content_type, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, 0, '', '', now(), now())
		ON CONFLICT (owner_id, parent_id, name) DO NOTHING
		RETURNING %s
	`, r.tables.Nodes, nodeColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, ownerID, parentID, models.NodeTypeDirectory, name))
	if err == nil {
		return node, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("create directory %q: %w", name, err)
	}

	// Conflict: the sibling exists (possibly created concurrently), reuse it.
	existing, err := r.GetChildByName(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("directory %q: %w", name, domain.ErrNotFound)
	}
	if !existing.IsDirectory() {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a file named %q already exists in this location", name),
			ResourceType: string(existing.Type),
			ResourceID:   existing.ID,
		}
	}

	return existing, nil
}

// GetPath computes the slash-joined display path using a recursive CTE
func (r *PostgresNodeRepository) GetPath(ctx context.Context, id, ownerID string) (string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE node_path AS (
			SELECT id, name, parent_id, name::text AS path
			FROM %s
			WHERE id = $1 AND owner_id = $2
			UNION ALL
			SELECT n.id, n.name, n.parent_id, n.name || '/' || np.path
			FROM %s n
			JOIN node_path np ON n.id = np.parent_id
		)
		SELECT path FROM node_path WHERE parent_id IS NULL
	`, r.tables.Nodes, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	var path string
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(&path)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return "", fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get node path: %w", err)
	}

	return path, nil
}

// ListDescendants returns every node below the directory, deepest-first.
// Deepest-first ordering lets cascading delete remove children before their
// parents without re-sorting.
func (r *PostgresNodeRepository) ListDescendants(ctx context.Context, dirID, ownerID string) ([]storageRepo.DescendantNode, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT %s, 1 AS depth, name::text AS rel_path
			FROM %s
			WHERE parent_id = $1 AND owner_id = $2
			UNION ALL
			SELECT n.id, n.owner_id, n.parent_id, n.node_type, n.name, n.size_bytes, n.storage_key, n.content_type, n.created_at, n.updated_at,
			       s.depth + 1, s.rel_path || '/' || n.name
			FROM %s n
			JOIN subtree s ON n.parent_id = s.id
		)
		SELECT %s, depth, rel_path FROM subtree
		ORDER BY depth DESC, rel_path ASC
	`, nodeColumns, r.tables.Nodes, r.tables.Nodes, nodeColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, dirID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list descendants: %w", err)
	}
	defer rows.Close()

	descendants := []storageRepo.DescendantNode{}
	for rows.Next() {
		var d storageRepo.DescendantNode
		err := rows.Scan(
			&d.ID,
			&d.OwnerID,
			&d.ParentID,
			&d.Type,
			&d.Name,
			&d.SizeBytes,
			&d.StorageKey,
			&d.ContentType,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.Depth,
			&d.RelPath,
		)
		if err != nil {
			return nil, fmt.Errorf("scan descendant: %w", err)
		}
		descendants = append(descendants, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descendants: %w", err)
	}

	return descendants, nil
}

// Search performs a case-insensitive substring match on names, ordered by
// full path for deterministic pagination. Subtree scoping roots the
// recursive walk at the scope directory instead of querying live per node.
func (r *PostgresNodeRepository) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	var rootClause string
	args := []interface{}{opts.OwnerID}
	if opts.ScopeID != nil {
		rootClause = "parent_id = $2"
		args = append(args, *opts.ScopeID)
	} else {
		rootClause = "parent_id IS NULL"
	}

	pattern := "%" + escapeLike(opts.Query) + "%"
	args = append(args, pattern, opts.Limit, opts.Offset)
	patternArg := len(args) - 2
	limitArg := len(args) - 1
	offsetArg := len(args)

	query := fmt.Sprintf(`
		WITH RECURSIVE tree AS (
			SELECT %s, name::text AS path
			FROM %s
			WHERE owner_id = $1 AND %s
			UNION ALL
			SELECT n.id, n.owner_id, n.parent_id, n.node_type, n.name, n.size_bytes, n.storage_key, n.content_type, n.created_at, n.updated_at,
			       t.path || '/' || n.name
			FROM %s n
			JOIN tree t ON n.parent_id = t.id
		)
		SELECT %s, path, COUNT(*) OVER () AS total_count
		FROM tree
		WHERE name ILIKE $%d ESCAPE '\'
		ORDER BY path ASC, name ASC
		LIMIT $%d OFFSET $%d
	`, nodeColumns, r.tables.Nodes, rootClause, r.tables.Nodes, nodeColumns, patternArg, limitArg, offsetArg)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search nodes: %w", err)
	}
	defer rows.Close()

	results := []models.Node{}
	totalCount := 0
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Type,
			&node.Name,
			&node.SizeBytes,
			&node.StorageKey,
			&node.ContentType,
			&node.CreatedAt,
			&node.UpdatedAt,
			&node.Path,
			&totalCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	return models.NewSearchResults(results, totalCount, opts), nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
