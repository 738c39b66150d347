package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/model"
)

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts, its replies and quotes, and their media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deletion, err := deletePost(cmd.Context(), opts.app, model.PostID(args[0]))
			if err != nil {
				return err
			}
			if n := len(deletion.PostIDs) - 1; n > 0 {
				printSuccess(cmd.OutOrStdout(), "Deleted %s and %d replies or quotes", args[0], n)
			} else {
				printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			}
			return nil
		},
	}
}

// deletePost removes the post and the replies and quotes below it, then their
// media. Media left behind by a failed bucket delete are logged and otherwise
// ignored.
func deletePost(ctx context.Context, app *App, id model.PostID) (*model.Deletion, error) {
	user, err := app.Auth.RequireUser()
	if err != nil {
		return nil, err
	}

	post, err := app.Posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	deletion, err := app.Posts.DeletePost(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}

	if len(deletion.Medias) > 0 {
		if err := app.Store.Delete(ctx, deletion.Medias); err != nil {
			app.Log.Warn().Err(err).Str("post_id", string(id)).Strs("paths", deletion.Medias).Msg("Failed to delete post media")
		}
	}

	keys := []cache.Key{cache.Feed()}
	for _, removed := range deletion.PostIDs {
		keys = append(keys, cache.Reposts(removed), cache.Likes(removed))
	}
	if post.ParentID != "" {
		keys = append(keys, cache.Reposts(post.ParentID))
	}
	app.Invalidator().Invalidate(ctx, keys...)
	return deletion, nil
}

func newLikeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or unlike it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			liked, err := opts.app.Interactions.ToggleLike(cmd.Context(), opts.app.Auth.CurrentUser(), model.PostID(args[0]))
			if err != nil {
				return err
			}
			if liked {
				printSuccess(cmd.OutOrStdout(), "Liked %s", args[0])
			} else {
				printSuccess(cmd.OutOrStdout(), "Unliked %s", args[0])
			}
			return nil
		},
	}
}

func newRepostCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repost <post-id>",
		Short: "Repost a post, or undo your repost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reposted, err := opts.app.Interactions.ToggleRepost(cmd.Context(), opts.app.Auth.CurrentUser(), model.PostID(args[0]))
			if err != nil {
				return err
			}
			if reposted {
				printSuccess(cmd.OutOrStdout(), "Reposted %s", args[0])
			} else {
				printSuccess(cmd.OutOrStdout(), "Removed repost of %s", args[0])
			}
			return nil
		},
	}
}

func newFeedCommand(opts *rootOptions) *cobra.Command {
	var limit int
	var repliesOf string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the latest posts",
		Long: `Show the latest posts, replies and quotes included, newest first.

With --replies-of the replies to a post are shown instead, oldest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app := opts.app

			var posts []model.Post
			var err error
			if repliesOf != "" {
				posts, err = app.Posts.ListReplies(ctx, model.PostID(repliesOf))
			} else {
				posts, err = cache.Fetch(ctx, app.Cache, cache.FeedPage(limit), func(ctx context.Context) ([]model.Post, error) {
					return app.Posts.ListPosts(ctx, limit)
				})
			}
			if err != nil {
				return err
			}

			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styleGray.Render("Nothing here yet."))
				return nil
			}

			for _, p := range posts {
				reposts, err := cache.Fetch(ctx, app.Cache, cache.Reposts(p.ID), func(ctx context.Context) (int, error) {
					return app.Posts.RepostCount(ctx, p.ID)
				})
				if err != nil {
					return err
				}
				likes, err := cache.Fetch(ctx, app.Cache, cache.Likes(p.ID), func(ctx context.Context) (int, error) {
					return app.Posts.LikeCount(ctx, p.ID)
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPost(p, reposts, likes))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of posts to show")
	cmd.Flags().StringVar(&repliesOf, "replies-of", "", "Show the replies to this post")
	return cmd
}
