package model_test

import (
	"reflect"
	"testing"

	"github.com/guarzo/bcards/common/model"
)

func TestCardClone(t *testing.T) {
	tests := []struct {
		name  string
		likes model.Likes
	}{
		{"nil", nil},
		{"empty", model.Likes{}},
		{"populated", model.Likes{"u1", "u2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := model.Card{ID: "c1", Likes: tt.likes}
			clone := card.Clone()
			if !reflect.DeepEqual(clone, card) {
				t.Fatalf("clone %+v differs from %+v", clone, card)
			}
			if (clone.Likes == nil) != (card.Likes == nil) {
				t.Errorf("clone changed nil-ness of likes: %#v -> %#v", card.Likes, clone.Likes)
			}
			if len(clone.Likes) > 0 {
				clone.Likes[0] = "intruder"
				if card.Likes[0] == "intruder" {
					t.Error("clone shares likes with the original")
				}
			}
		})
	}
}

func TestJSONUnmarshal_Likes(t *testing.T) {
	tests := []struct {
		name string
		data string
		want model.Likes
	}{
		{"duplicates collapse", `{"likes":["u1","u2","u1"]}`, model.Likes{"u1", "u2"}},
		{"empty stays empty", `{"likes":[]}`, model.Likes{}},
		{"null stays nil", `{"likes":null}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var card model.Card
			if err := model.JSONUnmarshal([]byte(tt.data), &card); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(card.Likes, tt.want) {
				t.Errorf("got %#v, want %#v", card.Likes, tt.want)
			}
		})
	}
}

func TestJSONUnmarshal_Error(t *testing.T) {
	var card model.Card
	if err := model.JSONUnmarshal([]byte(`{"likes":"u1"}`), &card); err == nil {
		t.Error("expected an error for a non-array likes field")
	}
}
