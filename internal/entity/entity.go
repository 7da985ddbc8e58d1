// Package entity maps users and chats to and from store documents.
package entity

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/matheus3301/chatadmin/internal/docstore"
)

const (
	UsersCollection = "users"
	ChatsCollection = "chats"
)

// DefaultChatType is the type given to chats created from the console.
const DefaultChatType = "group"

// Status is a user's role.
type Status string

const (
	StatusUser Status = "User"
	StatusTL   Status = "TL"
)

// Statuses lists the accepted values in display order.
var Statuses = []Status{StatusUser, StatusTL}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (want User or TL)", s)
}

// User is a registered chat user. Users are created by the registration
// flow; the console only changes Status.
type User struct {
	ID          string
	DisplayName string
	Email       string
	PhoneNumber string
	// Status is empty when the record has none.
	Status Status
}

// EffectiveStatus is Status, or User when unset.
func (u User) EffectiveStatus() Status {
	if u.Status == "" {
		return StatusUser
	}
	return u.Status
}

// UserFromDoc maps a users document.
func UserFromDoc(doc docstore.Document) User {
	return User{
		ID:          doc.ID,
		DisplayName: str(doc.Data["displayName"]),
		Email:       str(doc.Data["email"]),
		PhoneNumber: str(doc.Data["phoneNumber"]),
		Status:      Status(str(doc.Data["status"])),
	}
}

// Fields returns the document body for u.
func (u User) Fields() map[string]any {
	m := map[string]any{
		"displayName": u.DisplayName,
		"email":       u.Email,
		"phoneNumber": u.PhoneNumber,
	}
	if u.Status != "" {
		m["status"] = string(u.Status)
	}
	return m
}

// Member is a copy of a user's attributes taken when they were added to a
// chat. Later changes to the user are not reflected.
type Member struct {
	UID         string
	DisplayName string
	Email       string
	PhoneNumber string
	Status      Status
	// Extra holds stored fields the console does not model. Value writes
	// them back unchanged.
	Extra map[string]any
}

var memberFields = map[string]bool{
	"uid": true, "displayName": true, "email": true, "phoneNumber": true, "status": true,
}

// Snapshot copies u into a Member.
func Snapshot(u User) Member {
	return Member{
		UID:         u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Status:      u.Status,
	}
}

// Value returns the member as stored inside a chat document.
func (m Member) Value() map[string]any {
	v := make(map[string]any, len(m.Extra)+5)
	maps.Copy(v, m.Extra)
	v["uid"] = m.UID
	v["displayName"] = m.DisplayName
	v["email"] = m.Email
	v["phoneNumber"] = m.PhoneNumber
	if m.Status != "" {
		v["status"] = string(m.Status)
	}
	return v
}

func memberFromValue(v any) Member {
	m, _ := v.(map[string]any)
	uid := str(m["uid"])
	if uid == "" {
		uid = str(m["id"])
	}
	var extra map[string]any
	for k, val := range m {
		if memberFields[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = val
	}
	return Member{
		UID:         uid,
		DisplayName: str(m["displayName"]),
		Email:       str(m["email"]),
		PhoneNumber: str(m["phoneNumber"]),
		Status:      Status(str(m["status"])),
		Extra:       extra,
	}
}

// MembersFromValues maps a stored members array.
func MembersFromValues(values []any) []Member {
	members := make([]Member, 0, len(values))
	for _, v := range values {
		members = append(members, memberFromValue(v))
	}
	return members
}

// MemberValues is the inverse of MembersFromValues.
func MemberValues(members []Member) []any {
	out := make([]any, 0, len(members))
	for _, m := range members {
		out = append(out, m.Value())
	}
	return out
}

// Chat is a chat room with its member snapshots.
type Chat struct {
	ID      string
	Name    string
	Type    string
	Members []Member
}

// ChatFromDoc maps a chats document.
func ChatFromDoc(doc docstore.Document) Chat {
	values, _ := doc.Data["members"].([]any)
	return Chat{
		ID:      doc.ID,
		Name:    str(doc.Data["name"]),
		Type:    str(doc.Data["type"]),
		Members: MembersFromValues(values),
	}
}

// Fields returns the document body for c.
func (c Chat) Fields() map[string]any {
	return map[string]any{
		"name":    c.Name,
		"type":    c.Type,
		"members": MemberValues(c.Members),
	}
}

// str renders scalar document values. Phone numbers entered as numbers
// come back as float64 and print as plain digits.
func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
