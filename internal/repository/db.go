package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/db"
	"github.com/debemdeboas/the-thread/internal/model"
	"github.com/debemdeboas/the-thread/internal/util"
	"github.com/debemdeboas/the-thread/internal/util/compression"
)

const selectPost = `SELECT p.id, p.user_id, p.post_type, COALESCE(p.parent_id, ''), p.content, COALESCE(p.content_hash, ''),
	p.medias, p.created_at, p.modified_at,
	(SELECT COUNT(*) FROM posts c WHERE c.parent_id = p.id AND c.post_type = 'reply')
	FROM posts p`

type DBPostRepository struct { // implements PostRepository
	// Read-through cache for single posts.
	postsCache *cache.Cache[model.PostID, *model.Post]

	db         db.DB
	compressor compression.Compressor

	now func() time.Time
}

func NewDBPostRepository(db db.DB) *DBPostRepository {
	return &DBPostRepository{
		postsCache: cache.NewCache[model.PostID, *model.Post](),

		db: db,

		compressor: compression.ZstdCompressor{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBPostRepository) CreatePost(ctx context.Context, owner model.UserID, p model.NewPost) (*model.Post, error) {
	if owner == "" {
		return nil, model.ErrNotAuthenticated
	}
	if err := model.CheckParent(p.PostType, p.ParentID); err != nil {
		return nil, err
	}

	now := r.now()
	post := &model.Post{
		ID:           model.PostID(uuid.New().String()),
		Owner:        owner,
		PostType:     p.PostType,
		ParentID:     p.ParentID,
		Content:      p.Content,
		Medias:       normalizeMedias(p.Medias),
		CreatedDate:  now,
		ModifiedDate: now,
	}

	compressed, medias, err := r.encode(post)
	if err != nil {
		return nil, err
	}

	var parent any
	if post.ParentID != "" {
		parent = string(post.ParentID)
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if parent != nil {
			if err := postExists(ctx, tx, post.ParentID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO posts (id, user_id, post_type, parent_id, content, content_hash, medias, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			post.ID, post.Owner, post.PostType, parent, compressed, post.ContentHash, medias, post.CreatedDate, post.ModifiedDate,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error saving post: %w", err)
	}

	repoLogger.Debug().Str("post_id", string(post.ID)).Str("parent_id", string(post.ParentID)).Msg("Post created")
	return post, nil
}

func postExists(ctx context.Context, tx *sql.Tx, id model.PostID) error {
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}
	return nil
}

func (r *DBPostRepository) UpdatePost(ctx context.Context, owner model.UserID, id model.PostID, content string, medias []string) (*model.Post, error) {
	if owner == "" {
		return nil, model.ErrNotAuthenticated
	}

	post := &model.Post{Content: content, Medias: normalizeMedias(medias)}
	compressed, encodedMedias, err := r.encode(post)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET content = ?, content_hash = ?, medias = ?, modified_at = ? WHERE id = ? AND user_id = ?`,
		compressed, post.ContentHash, encodedMedias, r.now(), id, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}

	r.postsCache.Delete(id)
	repoLogger.Debug().Str("post_id", string(id)).Msg("Post updated")
	return r.GetPost(ctx, id)
}

// selectThread lists a post and every post below it through parent_id.
const selectThread = `WITH RECURSIVE thread(id) AS (
		SELECT id FROM posts WHERE id = ?
		UNION SELECT p.id FROM posts p JOIN thread t ON p.parent_id = t.id
	)
	SELECT id, medias FROM posts WHERE id IN thread`

// DeletePost deletes the owner's post. Replies and quotes below it, by any
// user, go with it through the parent_id cascade, as do their likes and
// reposts. The returned Deletion lists everything removed.
func (r *DBPostRepository) DeletePost(ctx context.Context, owner model.UserID, id model.PostID) (*model.Deletion, error) {
	if owner == "" {
		return nil, model.ErrNotAuthenticated
	}

	deletion := &model.Deletion{}
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, selectThread, id)
		if err != nil {
			return fmt.Errorf("error listing thread: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				postID model.PostID
				medias string
				paths  []string
			)
			if err := rows.Scan(&postID, &medias); err != nil {
				return fmt.Errorf("error scanning thread: %w", err)
			}
			if err := json.Unmarshal([]byte(medias), &paths); err != nil {
				return fmt.Errorf("error decoding medias of post %s: %w", postID, err)
			}
			deletion.PostIDs = append(deletion.PostIDs, postID)
			deletion.Medias = append(deletion.Medias, paths...)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, id, owner)
		if err != nil {
			return fmt.Errorf("error deleting post: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, removed := range deletion.PostIDs {
		r.postsCache.Delete(removed)
	}
	repoLogger.Debug().Str("post_id", string(id)).Int("removed", len(deletion.PostIDs)).Msg("Post deleted")
	return deletion, nil
}

func (r *DBPostRepository) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	if post, ok := r.postsCache.Get(id); ok {
		return clonePost(post), nil
	}

	row := r.db.QueryRowContext(ctx, selectPost+` WHERE p.id = ?`, id)
	post, err := r.scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	r.postsCache.Set(id, post)
	return clonePost(post), nil
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Medias = slices.Clone(p.Medias)
	return &c
}

func (r *DBPostRepository) ListPosts(ctx context.Context, limit int) ([]model.Post, error) {
	query := selectPost + ` ORDER BY p.created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryPosts(ctx, query, args...)
}

func (r *DBPostRepository) ListReplies(ctx context.Context, parent model.PostID) ([]model.Post, error) {
	return r.queryPosts(ctx, selectPost+` WHERE p.parent_id = ? AND p.post_type = 'reply' ORDER BY p.created_at ASC`, parent)
}

func (r *DBPostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBPostRepository) scanPost(s scanner) (*model.Post, error) {
	var (
		post       model.Post
		compressed []byte
		medias     string
		modified   sql.NullTime
	)

	err := s.Scan(&post.ID, &post.Owner, &post.PostType, &post.ParentID, &compressed, &post.ContentHash,
		&medias, &post.CreatedDate, &modified, &post.ReplyCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning post: %w", err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	post.Content = string(content)

	post.ModifiedDate = post.CreatedDate
	if modified.Valid {
		post.ModifiedDate = modified.Time
	}

	if err := json.Unmarshal([]byte(medias), &post.Medias); err != nil {
		return nil, fmt.Errorf("error decoding medias of post %s: %w", post.ID, err)
	}
	post.Medias = normalizeMedias(post.Medias)

	return &post, nil
}

// encode compresses the content, sets the content hash and serializes the media list.
func (r *DBPostRepository) encode(post *model.Post) ([]byte, string, error) {
	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return nil, "", fmt.Errorf("error compressing content: %w", err)
	}

	// Calculate the content hash for the compressed content
	post.ContentHash = util.ContentHash(compressed)

	medias, err := json.Marshal(post.Medias)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding medias: %w", err)
	}
	return compressed, string(medias), nil
}

func normalizeMedias(medias []string) []string {
	if medias == nil {
		return []string{}
	}
	return medias
}

func (r *DBPostRepository) ToggleLike(ctx context.Context, user model.UserID, id model.PostID) (bool, error) {
	return r.toggle(ctx, "likes", user, id)
}

func (r *DBPostRepository) ToggleRepost(ctx context.Context, user model.UserID, id model.PostID) (bool, error) {
	return r.toggle(ctx, "reposts", user, id)
}

// toggle deletes the user's row in table if present, inserts it otherwise.
func (r *DBPostRepository) toggle(ctx context.Context, table string, user model.UserID, id model.PostID) (bool, error) {
	if user == "" {
		return false, model.ErrNotAuthenticated
	}

	var active bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, id); err != nil {
			return err
		}

		var rowID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE post_id = ? AND user_id = ?`, id, user).Scan(&rowID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `INSERT INTO `+table+` (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
				uuid.New().String(), id, user, r.now())
			active = true
			return err
		case err != nil:
			return err
		default:
			_, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, rowID)
			active = false
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("error toggling %s: %w", strings.TrimSuffix(table, "s"), err)
	}

	repoLogger.Debug().Str("post_id", string(id)).Str("table", table).Bool("active", active).Msg("Interaction toggled")
	return active, nil
}

func (r *DBPostRepository) RepostCount(ctx context.Context, id model.PostID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM reposts WHERE post_id = ?) + (SELECT COUNT(*) FROM posts WHERE parent_id = ? AND post_type = 'quote')`,
		id, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting reposts: %w", err)
	}
	return n, nil
}

func (r *DBPostRepository) LikeCount(ctx context.Context, id model.PostID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting likes: %w", err)
	}
	return n, nil
}

// Invalidate drops cached posts matching keys. Feed() clears everything.
func (r *DBPostRepository) Invalidate(_ context.Context, keys ...cache.Key) {
	for _, k := range keys {
		if k.Kind != cache.KindPosts {
			continue
		}
		if k.ID == "" {
			r.postsCache.Clear()
			continue
		}
		r.postsCache.Delete(model.PostID(k.ID))
	}
}
