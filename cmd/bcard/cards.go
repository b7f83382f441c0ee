package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guarzo/bcards/common/model"
	"github.com/guarzo/bcards/modules/cards"
	"github.com/guarzo/bcards/modules/confirm"
)

func cardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Browse and manage business cards",
	}
	cmd.AddCommand(
		cardsListCmd(a),
		cardsFavoritesCmd(a),
		cardsMineCmd(a),
		cardsShowCmd(a),
		cardsCreateCmd(a),
		cardsUpdateCmd(a),
		cardsDeleteCmd(a),
		cardsLikeCmd(a),
	)
	return cmd
}

func cardsListCmd(a *app) *cobra.Command {
	var (
		refresh bool
		search  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every card in the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.cards.GetAllCards(cmd.Context(), refresh)
			if err != nil {
				return describe(err)
			}
			printCards(cmd.OutOrStdout(), cards.Filter(list, search), likerID(a))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show cards matching this text")
	return cmd
}

func cardsFavoritesCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List the cards you liked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.cards.GetFavoriteCards(cmd.Context(), refresh)
			if err != nil {
				return describe(err)
			}
			printCards(cmd.OutOrStdout(), list, likerID(a))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func cardsMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the cards you created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.cards.GetMyCards(cmd.Context())
			if err != nil {
				return describe(err)
			}
			printCards(cmd.OutOrStdout(), list, likerID(a))
			return nil
		},
	}
}

func cardsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.cards.GetCardByID(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			printCard(cmd.OutOrStdout(), card)
			return nil
		},
	}
}

func cardsCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a card from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := a.users.CurrentIdentity()
			if err != nil {
				return describe(err)
			}
			if err := cards.CheckCreate(ident); err != nil {
				return describe(err)
			}
			var form model.CardForm
			if err := readYAML(file, &form); err != nil {
				return err
			}
			card, err := a.cards.CreateCard(cmd.Context(), form.Normalize())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %s\n", card.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "card YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func cardsUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a card; fields missing from the file keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := editableCard(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			form := card.Form()
			if err := readYAML(file, &form); err != nil {
				return err
			}
			updated, err := a.cards.UpdateCard(cmd.Context(), card.ID, form.Normalize())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s\n", updated.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "card YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func cardsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := editableCard(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			flow := confirm.New(func(ctx context.Context, id string, _ confirm.Kind) error {
				return a.cards.DeleteCard(ctx, id)
			})
			return runDelete(cmd, flow, card.ID, confirm.KindCard, fmt.Sprintf("Delete card %q?", card.Title), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func cardsLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like a card, or remove your like",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.cards.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			state := "Unliked"
			if card.Likes.Contains(likerID(a)) {
				state = "Liked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d likes)\n", state, card.Title, len(card.Likes))
			return nil
		},
	}
}

// editableCard fetches id and checks the current user may change it.
func editableCard(ctx context.Context, a *app, id string) (*model.Card, error) {
	ident, err := a.users.CurrentIdentity()
	if err != nil {
		return nil, describe(err)
	}
	card, err := a.cards.GetCardByID(ctx, id)
	if err != nil {
		return nil, describe(err)
	}
	if err := cards.CheckEdit(ident, card); err != nil {
		return nil, describe(err)
	}
	return card, nil
}

// runDelete drives flow for one item, asking on stdin unless yes is set.
func runDelete(cmd *cobra.Command, flow *confirm.Workflow, id string, kind confirm.Kind, question string, yes bool) error {
	flow.Request(id, kind)
	if !yes {
		ok, err := confirmPrompt(cmd, question)
		if err != nil {
			return err
		}
		if !ok {
			flow.Cancel()
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}
	if err := flow.Confirm(cmd.Context()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), flow.State().Err)
		return describe(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, id)
	return nil
}

// likerID is the current user's id, or "" when logged out.
func likerID(a *app) string {
	ident, err := a.users.CurrentIdentity()
	if err != nil {
		return ""
	}
	return ident.ID
}
