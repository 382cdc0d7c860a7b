package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// PostListFilter narrows List. Empty fields do not filter.
type PostListFilter struct {
	CategorySlug string
	AuthorID     string
	Status       models.PostStatus
	Limit        int
	Offset       int
}

// PostRepository handles post persistence and full-text search
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.PostWithAuthor, error)
	GetBySlug(ctx context.Context, slug string) (*models.PostWithAuthor, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter PostListFilter) ([]models.PostWithAuthor, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.PostSearchResult, int, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error

	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

const postSelect = `
	SELECT p.id, p.author_id, p.category_id, p.title, p.slug, p.excerpt, p.content, p.status,
		p.likes_count, p.comments_count, p.published_at, p.created_at, p.updated_at,
		COALESCE(NULLIF(u.display_name, ''), u.username), u.avatar_url,
		COALESCE(c.name, ''), COALESCE(c.slug, '')
`

const postFrom = `
	FROM posts p
	INNER JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id
`

func scanPost(row pgx.Row, extra ...interface{}) (*models.PostWithAuthor, error) {
	p := &models.PostWithAuthor{}
	var status string
	dest := []interface{}{
		&p.ID,
		&p.AuthorID,
		&p.CategoryID,
		&p.Title,
		&p.Slug,
		&p.Excerpt,
		&p.Content,
		&status,
		&p.LikesCount,
		&p.CommentsCount,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.AuthorName,
		&p.AuthorAvatar,
		&p.CategoryName,
		&p.CategorySlug,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Status = models.PostStatus(status)
	return p, nil
}

// Create inserts a new post
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = utils.GenerateID()
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}

	query := `
		INSERT INTO posts (id, author_id, category_id, title, slug, excerpt, content, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		post.ID,
		post.AuthorID,
		post.CategoryID,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		string(post.Status),
		post.PublishedAt,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return mapDBError(err, "create_post", models.ErrPostNotFound)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *postRepository) GetByID(ctx context.Context, id string) (*models.PostWithAuthor, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, postSelect+postFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapDBError(err, "get_post_by_id", models.ErrPostNotFound)
	}
	return post, nil
}

// GetBySlug retrieves a post by its slug
func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.PostWithAuthor, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, postSelect+postFrom+` WHERE p.slug = $1`, slug))
	if err != nil {
		return nil, mapDBError(err, "get_post_by_slug", models.ErrPostNotFound)
	}
	return post, nil
}

// SlugExists checks if a slug is already taken
func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, mapDBError(err, "check_slug_exists", models.ErrPostNotFound)
	}
	return exists, nil
}

// List retrieves posts newest first with optional filters
func (r *postRepository) List(ctx context.Context, filter PostListFilter) ([]models.PostWithAuthor, int, error) {
	args := []interface{}{}
	filters := []string{}
	param := 1

	if filter.CategorySlug != "" {
		filters = append(filters, fmt.Sprintf("c.slug = $%d", param))
		args = append(args, filter.CategorySlug)
		param++
	}
	if filter.AuthorID != "" {
		filters = append(filters, fmt.Sprintf("p.author_id = $%d", param))
		args = append(args, filter.AuthorID)
		param++
	}
	if filter.Status != "" {
		filters = append(filters, fmt.Sprintf("p.status = $%d", param))
		args = append(args, string(filter.Status))
		param++
	}

	where := ""
	if len(filters) > 0 {
		where = " WHERE " + strings.Join(filters, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+postFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, "count_posts", models.ErrPostNotFound)
	}

	query := postSelect + postFrom + where + fmt.Sprintf(`
		ORDER BY COALESCE(p.published_at, p.created_at) DESC, p.id DESC
		LIMIT $%d OFFSET $%d
	`, param, param+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapDBError(err, "list_posts", models.ErrPostNotFound)
	}
	defer rows.Close()

	posts := make([]models.PostWithAuthor, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, mapDBError(err, "scan_post", models.ErrPostNotFound)
		}
		// listings carry the excerpt only
		post.Content = ""
		posts = append(posts, *post)
	}
	return posts, total, rows.Err()
}

// Search ranks published posts against a web-style query
func (r *postRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.PostSearchResult, int, error) {
	searchQuery := strings.TrimSpace(query)
	if searchQuery == "" {
		return []models.PostSearchResult{}, 0, nil
	}

	where := ` WHERE p.status = 'published' AND p.search_vector @@ websearch_to_tsquery('english', $1)`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+postFrom+where, searchQuery).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, "count_search_results", models.ErrPostNotFound)
	}
	if total == 0 {
		return []models.PostSearchResult{}, 0, nil
	}

	searchSQL := postSelect + `,
		ts_rank_cd(p.search_vector, websearch_to_tsquery('english', $1)) AS relevance_score
	` + postFrom + where + `
		ORDER BY relevance_score DESC, p.published_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, searchSQL, searchQuery, limit, offset)
	if err != nil {
		return nil, 0, mapDBError(err, "search_posts", models.ErrPostNotFound)
	}
	defer rows.Close()

	results := make([]models.PostSearchResult, 0)
	for rows.Next() {
		var score float64
		post, err := scanPost(rows, &score)
		if err != nil {
			return nil, 0, mapDBError(err, "scan_search_result", models.ErrPostNotFound)
		}
		post.Content = ""
		results = append(results, models.PostSearchResult{PostWithAuthor: *post, RelevanceScore: score})
	}
	return results, total, rows.Err()
}

// Update writes the editable fields of a post
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, excerpt = $3, content = $4, category_id = $5, status = $6,
			published_at = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		post.ID,
		post.Title,
		post.Excerpt,
		post.Content,
		post.CategoryID,
		string(post.Status),
		post.PublishedAt,
	).Scan(&post.UpdatedAt)
	if err != nil {
		return mapDBError(err, "update_post", models.ErrPostNotFound)
	}
	return nil
}

// Delete removes a post; comments and likes cascade
func (r *postRepository) Delete(ctx context.Context, id string) error {
	return r.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE target_type = 'post' AND target_id = $1`, id); err != nil {
			return mapDBError(err, "delete_post_likes", models.ErrPostNotFound)
		}
		var deletedID string
		if err := tx.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING id`, id).Scan(&deletedID); err != nil {
			return mapDBError(err, "delete_post", models.ErrPostNotFound)
		}
		return nil
	})
}

// WithTransaction executes a function within a database transaction
func (r *postRepository) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return withTransaction(ctx, r.pool, fn)
}
