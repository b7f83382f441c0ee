package cards_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/guarzo/bcards/common/model"
	"github.com/guarzo/bcards/modules/cards"
)

func TestListView_RefreshesOnChange(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()

	view := cards.NewListView(f.svc, cards.FavoriteCards(f.svc))
	if err := view.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer view.Close()

	if !reflect.DeepEqual(ids(view.Cards()), []string{"A", "C"}) {
		t.Fatalf("unexpected initial favorites %v", ids(view.Cards()))
	}

	updated := seedCards()
	updated[0].Likes = model.Likes{}
	f.client.likeFunc = func(ctx context.Context, id string) (*model.Card, error) {
		f.client.listFunc = func(ctx context.Context) ([]model.Card, error) { return updated, nil }
		return &updated[0], nil
	}

	if _, err := f.svc.ToggleLike(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	view.Wait()

	if !reflect.DeepEqual(ids(view.Cards()), []string{"C"}) {
		t.Errorf("expected favorites to drop A, got %v", ids(view.Cards()))
	}
}

func TestListView_OpenTwiceSubscribesOnce(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	view := cards.NewListView(f.svc, cards.AllCards(f.svc))
	_ = view.Open(ctx)
	_ = view.Open(ctx)

	updates := 0
	view.OnUpdate(func([]model.Card, error) { updates++ })

	_ = f.svc.DeleteCard(ctx, "B")
	view.Wait()
	if updates != 1 {
		t.Errorf("expected one refresh per notification, got %d", updates)
	}

	view.Close()
	_ = f.svc.DeleteCard(ctx, "C")
	view.Wait()
	if updates != 1 {
		t.Errorf("expected no refresh after Close, got %d", updates)
	}
}

func TestListView_DropsResultsAfterClose(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	view := cards.NewListView(f.svc, cards.AllCards(f.svc))
	if err := view.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	f.client.deleteFunc = func(ctx context.Context, id string) error {
		f.client.listFunc = func(ctx context.Context) ([]model.Card, error) {
			close(started)
			<-release
			return []model.Card{}, nil
		}
		return nil
	}

	_ = f.svc.DeleteCard(ctx, "A")
	<-started
	view.Close()
	close(release)
	view.Wait()

	if len(view.Cards()) != 3 {
		t.Errorf("expected the pre-close snapshot to survive, got %v", ids(view.Cards()))
	}
}

func TestListView_SearchAndErrors(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	view := cards.NewListView(f.svc, cards.AllCards(f.svc))
	_ = view.Open(ctx)
	defer view.Close()

	view.SetSearch("char")
	if !reflect.DeepEqual(ids(view.Cards()), []string{"C"}) {
		t.Errorf("expected search to narrow to C, got %v", ids(view.Cards()))
	}

	boom := errors.New("offline")
	f.client.listFunc = func(ctx context.Context) ([]model.Card, error) { return nil, boom }
	if err := view.Refresh(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected refresh error, got %v", err)
	}
	if !errors.Is(view.Err(), boom) {
		t.Errorf("expected Err to report the failure, got %v", view.Err())
	}
	if len(view.Cards()) != 1 {
		t.Errorf("a failed refresh must keep the last snapshot, got %v", ids(view.Cards()))
	}
}

func TestListView_CardsIsACopy(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	view := cards.NewListView(f.svc, cards.AllCards(f.svc))
	if err := view.Open(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer view.Close()

	got := view.Cards()
	got[0].Title = "changed"
	got[2].Likes[0] = "intruder"

	again := view.Cards()
	if again[0].Title != "Alpha" {
		t.Errorf("caller edits leaked into the snapshot: %q", again[0].Title)
	}
	if again[2].Likes[0] != "u1" {
		t.Errorf("caller edits leaked into the snapshot likes: %v", again[2].Likes)
	}
}

func TestMyCardsLoader(t *testing.T) {
	f := newFixture(t, "u1")
	got, err := cards.MyCards(f.svc)(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"A"}) {
		t.Errorf("unexpected my cards %v", ids(got))
	}
}
