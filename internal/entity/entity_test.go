package entity

import (
	"testing"

	"github.com/matheus3301/chatadmin/internal/docstore"
)

func TestUserFromDoc(t *testing.T) {
	u := UserFromDoc(docstore.Document{ID: "u1", Data: map[string]any{
		"displayName": "Alice",
		"email":       "alice@example.com",
		"phoneNumber": float64(6281234567890),
	}})
	if u.ID != "u1" || u.DisplayName != "Alice" {
		t.Errorf("user = %+v", u)
	}
	if u.PhoneNumber != "6281234567890" {
		t.Errorf("PhoneNumber = %q, want digits", u.PhoneNumber)
	}
	if u.Status != "" {
		t.Errorf("Status = %q, want empty", u.Status)
	}
	if u.EffectiveStatus() != StatusUser {
		t.Errorf("EffectiveStatus() = %q, want User", u.EffectiveStatus())
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"User", StatusUser, false},
		{"tl", StatusTL, false},
		{" TL ", StatusTL, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChatFromDoc(t *testing.T) {
	c := ChatFromDoc(docstore.Document{ID: "c1", Data: map[string]any{
		"name": "Trip A",
		"type": "group",
		"members": []any{
			map[string]any{"uid": "u1", "displayName": "Alice"},
			map[string]any{"id": "u2", "displayName": "Bob"},
		},
	}})
	if c.Name != "Trip A" || c.Type != "group" {
		t.Errorf("chat = %+v", c)
	}
	if len(c.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(c.Members))
	}
	if c.Members[1].UID != "u2" {
		t.Errorf("legacy id not mapped: %+v", c.Members[1])
	}
}

func TestMemberKeepsUnknownFields(t *testing.T) {
	stored := map[string]any{
		"uid":         "u0",
		"displayName": "Old",
		"photoURL":    "https://example.com/a.png",
		"fcmToken":    "tok",
	}
	members := MembersFromValues([]any{stored})
	v := members[0].Value()
	if v["photoURL"] != "https://example.com/a.png" || v["fcmToken"] != "tok" {
		t.Errorf("Value() = %v, lost unknown fields", v)
	}
	if v["uid"] != "u0" || v["displayName"] != "Old" {
		t.Errorf("Value() = %v", v)
	}
	if _, ok := Snapshot(User{ID: "u1"}).Value()["photoURL"]; ok {
		t.Error("fresh snapshot has extra fields")
	}
}

func TestChatFromDocWithoutMembers(t *testing.T) {
	c := ChatFromDoc(docstore.Document{ID: "c1", Data: map[string]any{"name": "Trip A"}})
	if c.Members == nil || len(c.Members) != 0 {
		t.Errorf("Members = %#v, want empty non-nil", c.Members)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	u := User{ID: "u1", DisplayName: "Alice", Status: StatusTL}
	m := Snapshot(u)
	u.DisplayName = "Alicia"
	if m.DisplayName != "Alice" {
		t.Errorf("snapshot followed rename: %q", m.DisplayName)
	}
	v := m.Value()
	if v["uid"] != "u1" || v["status"] != "TL" {
		t.Errorf("Value() = %v", v)
	}
}
