package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guarzo/bcards/modules/cards"
	"github.com/guarzo/bcards/modules/confirm"
)

const shellHelp = `commands:
  ls                 show the list
  search [text]      filter the list (no text clears the filter)
  refresh            reload, bypassing the cache
  show <id>          show one card
  like <id>          like or unlike a card
  delete <id>        ask to delete a card, then answer yes or no
  quit`

func shellCmd(a *app) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive card list that stays current as you change cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var load cards.Loader
			switch view {
			case "all":
				load = cards.AllCards(a.cards)
			case "favorites":
				load = cards.FavoriteCards(a.cards)
			case "mine":
				load = cards.MyCards(a.cards)
			default:
				return fmt.Errorf("unknown view %q (valid: all, favorites, mine)", view)
			}

			s := &shell{
				app:  a,
				out:  cmd.OutOrStdout(),
				errw: cmd.ErrOrStderr(),
				list: cards.NewListView(a.cards, load),
			}
			s.flow = confirm.New(func(ctx context.Context, id string, _ confirm.Kind) error {
				return a.cards.DeleteCard(ctx, id)
			})
			return s.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&view, "view", "all", "list to show: all, favorites or mine")
	return cmd
}

type shell struct {
	app  *app
	out  io.Writer
	errw io.Writer
	list *cards.ListView
	flow *confirm.Workflow
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	if err := s.list.Open(ctx); err != nil {
		return describe(err)
	}
	defer s.list.Close()
	s.print()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		verb, arg := fields[0], strings.Join(fields[1:], " ")
		if verb == "quit" || verb == "exit" {
			return nil
		}
		if err := s.exec(ctx, verb, arg); err != nil {
			fmt.Fprintln(s.errw, "Error:", describe(err))
		}
	}
}

func (s *shell) exec(ctx context.Context, verb, arg string) error {
	switch verb {
	case "ls", "list":
		s.print()
	case "search":
		s.list.SetSearch(arg)
		s.print()
	case "refresh":
		if err := s.list.Refresh(ctx); err != nil {
			return err
		}
		s.print()
	case "show":
		card, err := s.app.cards.GetCardByID(ctx, arg)
		if err != nil {
			return err
		}
		printCard(s.out, card)
	case "like":
		card, err := s.app.cards.ToggleLike(ctx, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s now has %d likes\n", card.Title, len(card.Likes))
		s.settle()
	case "delete":
		card, err := editableCard(ctx, s.app, arg)
		if err != nil {
			return err
		}
		s.flow.Request(card.ID, confirm.KindCard)
		fmt.Fprintf(s.out, "Delete %q? type yes or no\n", card.Title)
	case "yes":
		if !s.flow.State().Open {
			fmt.Fprintln(s.out, "Nothing to confirm")
			return nil
		}
		if err := s.flow.Confirm(ctx); err != nil {
			fmt.Fprintln(s.out, s.flow.State().Err)
			return err
		}
		fmt.Fprintln(s.out, "Deleted")
		s.settle()
	case "no":
		s.flow.Cancel()
		fmt.Fprintln(s.out, "Cancelled")
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", verb)
	}
	return nil
}

// settle waits for the reload a mutation triggered and prints the result.
func (s *shell) settle() {
	s.list.Wait()
	s.print()
}

func (s *shell) print() {
	if err := s.list.Err(); err != nil {
		fmt.Fprintln(s.errw, "Error:", describe(err))
	}
	printCards(s.out, s.list.Cards(), likerID(s.app))
}
