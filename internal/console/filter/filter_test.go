package filter

import (
	"slices"
	"testing"

	"github.com/matheus3301/chatadmin/internal/entity"
)

var users = []entity.User{
	{ID: "1", DisplayName: "Alice", Email: "alice@example.com", PhoneNumber: "0811", Status: entity.StatusTL},
	{ID: "2", DisplayName: "Bob", Email: "bob@example.com", PhoneNumber: "0822", Status: entity.StatusUser},
	{ID: "3", DisplayName: "alicia", Email: "al@corp.io", PhoneNumber: "0833"},
	{ID: "4", DisplayName: "Carol", Email: "carol@corp.io", PhoneNumber: "0844", Status: entity.StatusTL},
}

func ids(us []entity.User) []string {
	var out []string
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter UserFilter
		want   []string
	}{
		{"zero matches all", UserFilter{}, []string{"1", "2", "3", "4"}},
		{"name substring case-insensitive", UserFilter{DisplayName: "ALI"}, []string{"1", "3"}},
		{"email", UserFilter{Email: "corp.io"}, []string{"3", "4"}},
		{"phone", UserFilter{PhoneNumber: "22"}, []string{"2"}},
		{"status exact", UserFilter{Status: "tl"}, []string{"1", "4"}},
		{"status is not substring", UserFilter{Status: "T"}, nil},
		{"missing status counts as User", UserFilter{Status: "User"}, []string{"2", "3"}},
		{"all predicates", UserFilter{DisplayName: "ali", Email: "example", Status: "TL"}, []string{"1"}},
		{"whitespace is unpopulated", UserFilter{DisplayName: "  "}, []string{"1", "2", "3", "4"}},
		{"no match", UserFilter{DisplayName: "zed"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(users))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	filters := []UserFilter{
		{DisplayName: "ali"},
		{Status: "TL"},
		{Email: "corp", Status: "user"},
		{},
	}
	for _, f := range filters {
		once := f.Apply(users)
		twice := f.Apply(once)
		if !slices.Equal(ids(once), ids(twice)) {
			t.Errorf("%+v: once %v, twice %v", f, ids(once), ids(twice))
		}
	}
}

func TestApplySubset(t *testing.T) {
	f := UserFilter{DisplayName: "a", Status: "TL"}
	got := f.Apply(users)
	for _, u := range got {
		if !slices.ContainsFunc(users, func(x entity.User) bool { return x == u }) {
			t.Errorf("%s not in the full list", u.ID)
		}
		if !f.Matches(u) {
			t.Errorf("%s does not satisfy the filter", u.ID)
		}
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	before := slices.Clone(users)
	_ = UserFilter{DisplayName: "bob"}.Apply(users)
	if !slices.Equal(before, users) {
		t.Error("Apply mutated its input")
	}
}

func TestIsZero(t *testing.T) {
	if !(UserFilter{}).IsZero() {
		t.Error("empty filter not zero")
	}
	if (UserFilter{Status: "TL"}).IsZero() {
		t.Error("status filter reported zero")
	}
}
