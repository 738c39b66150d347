package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-thread/internal/compose"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
)

func newDraftsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List, show, resume and delete saved drafts",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List drafts, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				drafts, err := opts.app.Drafts.ListDrafts(cmd.Context())
				if err != nil {
					return err
				}
				if len(drafts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), styleGray.Render("No drafts."))
					return nil
				}
				for _, d := range drafts {
					fmt.Fprintln(cmd.OutOrStdout(), renderDraft(d))
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <draft-id>",
			Short: "Show a draft and its media",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := opts.app.Drafts.GetDraft(cmd.Context(), editor.DraftID(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderDraft(d))
				for i, m := range d.Medias {
					fmt.Fprintln(cmd.OutOrStdout(), styleGray.Render(fmt.Sprintf("  [%d] %s %s", i, m.Kind, m.LocalURI)))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <draft-id>",
			Short: "Delete a draft",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.app.Drafts.DeleteDraft(cmd.Context(), editor.DraftID(args[0])); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted draft %s", args[0])
				return nil
			},
		},
		newResumeCommand(opts),
	)
	return cmd
}

func newResumeCommand(opts *rootOptions) *cobra.Command {
	flags := &composeFlags{}
	var text string
	var replaceText bool

	cmd := &cobra.Command{
		Use:   "resume <draft-id>",
		Short: "Send a saved draft",
		Long: `Send a saved draft, optionally changing its text or adding media first.

Media that no longer exist on disk or in the bucket are dropped with a warning.
A successfully sent draft is removed from the list. If sending fails the draft
is updated in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := opts.app.Drafts.GetDraft(ctx, editor.DraftID(args[0]))
			if err != nil {
				return err
			}

			s, dropped := compose.FromDraft(ctx, opts.app.ComposeDeps(), d)
			for _, m := range dropped {
				printWarning(cmd.ErrOrStderr(), "dropped missing media %s", m.LocalURI)
			}

			if replaceText {
				s.SetContent(text)
			} else if text != "" {
				s.SetContent(strings.TrimSpace(s.Content() + " " + text))
			}
			for _, m := range flags.media {
				s.AddMedia(media.Local(m))
			}

			return submitSession(cmd, opts.app, s, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&text, "append", "", "Text appended to the draft before sending")
	cmd.Flags().BoolVar(&replaceText, "replace", false, "Replace the draft text with --append instead of appending")
	return cmd
}
