package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-thread/internal/compose"
	"github.com/debemdeboas/the-thread/internal/events"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
)

type composeKind struct {
	use      string
	short    string
	postType model.PostType
}

var (
	composePost  = composeKind{use: "post <text>...", short: "Publish a new post", postType: model.PostTypePost}
	composeReply = composeKind{use: "reply <post-id> <text>...", short: "Reply to a post", postType: model.PostTypeReply}
	composeQuote = composeKind{use: "quote <post-id> [text]...", short: "Quote a post", postType: model.PostTypeQuote}
)

type composeFlags struct {
	media     []string
	onFailure string
}

func (f *composeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.media, "media", "m", nil, "Attach a local image or video (repeatable, kept in order)")
	cmd.Flags().StringVar(&f.onFailure, "on-failure", "save", "What to do with the composition if sending fails: save or discard")
}

func (f *composeFlags) decision() (compose.Decision, error) {
	switch f.onFailure {
	case "save":
		return compose.DecisionSave, nil
	case "discard":
		return compose.DecisionDiscard, nil
	}
	return 0, fmt.Errorf("invalid --on-failure %q, expected save or discard", f.onFailure)
}

func newComposeCommand(opts *rootOptions, kind composeKind) *cobra.Command {
	flags := &composeFlags{}

	minArgs := 0
	if kind.postType.RequiresParent() {
		minArgs = 1
	}

	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parent model.PostID
			if kind.postType.RequiresParent() {
				parent, args = model.PostID(args[0]), args[1:]
			}

			s, err := compose.New(opts.app.ComposeDeps(), kind.postType, parent)
			if err != nil {
				return err
			}
			s.SetContent(strings.Join(args, " "))
			for _, m := range flags.media {
				s.AddMedia(media.Local(m))
			}

			return submitSession(cmd, opts.app, s, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	flags := &composeFlags{}
	var remove []int

	cmd := &cobra.Command{
		Use:   "edit <post-id> [text]...",
		Short: "Edit one of your posts",
		Long: `Edit the text and media of a post you own.

Without text the current text is kept. Media are indexed from 0 in display
order; removed media are deleted from the bucket before the post is updated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			post, err := opts.app.Posts.GetPost(ctx, model.PostID(args[0]))
			if err != nil {
				return err
			}

			s := compose.ForEdit(opts.app.ComposeDeps(), post)
			if len(args) > 1 {
				s.SetContent(strings.Join(args[1:], " "))
			}

			// Remove from the highest index down so earlier indexes stay valid.
			slices.Sort(remove)
			remove = slices.Compact(remove)
			for i := len(remove) - 1; i >= 0; i-- {
				if err := s.RemoveMedia(remove[i]); err != nil {
					return err
				}
			}
			for _, m := range flags.media {
				s.AddMedia(media.Local(m))
			}

			return submitSession(cmd, opts.app, s, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntSliceVar(&remove, "remove-media", nil, "Index of an attached media to remove (repeatable)")
	return cmd
}

// submitSession sends s. If sending fails the composition is kept or dropped
// as --on-failure says, the way a user leaving the surface would decide.
func submitSession(cmd *cobra.Command, app *App, s *compose.Session, flags *composeFlags) error {
	decision, err := flags.decision()
	if err != nil {
		return err
	}

	sub := app.Hub.Subscribe(s.ID(), 32)
	defer app.Hub.Unsubscribe(sub)

	res, submitErr := s.Submit(cmd.Context())
	s.Wait()
	reportEvents(cmd.ErrOrStderr(), sub)

	if submitErr != nil {
		if _, err := s.Leave(cmd.Context(), decision); err != nil {
			printError(cmd.ErrOrStderr(), err)
		} else if id := s.DraftID(); decision == compose.DecisionSave && id != "" {
			printWarning(cmd.ErrOrStderr(), "kept as draft %s, resume with: thread drafts resume %s", id, id)
		}
		return submitErr
	}

	verb := "Updated"
	if res.Created {
		verb = "Published"
	}
	printSuccess(cmd.OutOrStdout(), "%s %s (%d media)", verb, res.PostID, len(res.MediaPaths))
	return nil
}

func reportEvents(w io.Writer, sub *events.Subscriber) {
	for {
		select {
		case ev := <-sub.C:
			switch ev.Kind {
			case events.KindStateChanged:
				fmt.Fprintln(w, styleGray.Render("· "+ev.State))
			case events.KindDeletionFailed, events.KindDraftDeleteFail:
				printWarning(w, "%v", ev.Err)
			}
		default:
			return
		}
	}
}
