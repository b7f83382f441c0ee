package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/guarzo/bcards/common/model"
)

func printCards(out io.Writer, list []model.Card, me string) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No cards found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPHONE\tCITY\tLIKES\t")
	for _, c := range list {
		likes := fmt.Sprintf("%d", len(c.Likes))
		if me != "" && c.Likes.Contains(me) {
			likes += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			c.ID,
			truncate(c.Title, 32),
			c.Phone,
			c.Address.City,
			likes,
		)
	}
	w.Flush()
}

func printCard(out io.Writer, c *model.Card) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", c.ID)
	fmt.Fprintf(w, "Title:\t%s\n", c.Title)
	fmt.Fprintf(w, "Subtitle:\t%s\n", c.Subtitle)
	fmt.Fprintf(w, "Description:\t%s\n", c.Description)
	fmt.Fprintf(w, "Phone:\t%s\n", c.Phone)
	fmt.Fprintf(w, "Email:\t%s\n", c.Email)
	if c.Web != "" {
		fmt.Fprintf(w, "Web:\t%s\n", c.Web)
	}
	fmt.Fprintf(w, "Address:\t%s %d, %s, %s\n", c.Address.Street, c.Address.HouseNumber, c.Address.City, c.Address.Country)
	if c.BizNumber != 0 {
		fmt.Fprintf(w, "Biz number:\t%d\n", c.BizNumber)
	}
	fmt.Fprintf(w, "Likes:\t%d\n", len(c.Likes))
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func printUsers(out io.Writer, list []model.User) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No users found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tBUSINESS\tADMIN\t")
	for _, u := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t\n", u.ID, truncate(u.Name.Full(), 32), u.Email, u.IsBusiness, u.IsAdmin)
	}
	w.Flush()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
