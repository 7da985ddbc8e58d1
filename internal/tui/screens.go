package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/console/edit"
	"github.com/matheus3301/chatadmin/internal/console/filter"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/export"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/tui/keys"
	"github.com/matheus3301/chatadmin/internal/tui/views"
)

func (a *App) bindUsers() {
	add := func(name string, key tcell.Key, r rune, label, desc string, fn func()) {
		a.registry.AddView(pageUsers, name, &keys.Action{
			Key: key, Rune: r, Label: label, Description: desc, Handler: fn,
		})
	}
	add("filter", tcell.KeyRune, '/', "/", "Filter", func() {
		a.filterForm.SetFilter(a.vm.Users.Filter())
		a.pages.Push(pageFilter)
	})
	add("reset", tcell.KeyRune, 'r', "r", "Reset filter", func() {
		a.vm.Users.ClearFilter()
		a.renderUsers()
	})
	add("edit", tcell.KeyRune, 'e', "e", "Edit status", func() {
		if u, ok := a.users.SelectedUser(); ok {
			a.warnAbandoned(len(a.vm.Users.BeginEdit(u.ID)))
			a.renderUsers()
		}
	})
	add("toggle", tcell.KeyRune, 't', "t", "Toggle status", a.toggleStatus)
	add("toggle-space", tcell.KeyRune, ' ', "Space", "Toggle status", a.toggleStatus)
	add("save", tcell.KeyEnter, 0, "Enter", "Save", a.saveStatus)
	add("cancel", tcell.KeyEscape, 0, "Esc", "Cancel edit", func() {
		if u, ok := a.users.SelectedUser(); ok {
			a.vm.Users.CancelEdit(u.ID)
			a.renderUsers()
		}
	})
	add("next", tcell.KeyRune, 'n', "n", "Next page", func() {
		if a.vm.Users.NextPage() {
			a.renderUsers()
		}
	})
	add("prev", tcell.KeyRune, 'p', "p", "Previous page", func() {
		if a.vm.Users.PrevPage() {
			a.renderUsers()
		}
	})
	add("export", tcell.KeyRune, 'x', "x", "Export", a.exportUsers)
	add("card", tcell.KeyRune, 'c', "c", "Contact card", func() {
		if u, ok := a.users.SelectedUser(); ok {
			a.card.Show(u)
			a.pages.Push(pageCard)
		}
	})
}

func (a *App) bindChats() {
	add := func(name string, key tcell.Key, r rune, label, desc string, fn func()) {
		a.registry.AddView(pageChats, name, &keys.Action{
			Key: key, Rune: r, Label: label, Description: desc, Handler: fn,
		})
	}
	add("add", tcell.KeyRune, 'a', "a", "Add chat", func() {
		a.showPrompt(promptNewChat, "", "New chat name", "")
	})
	add("rename", tcell.KeyRune, 'e', "e", "Rename", func() {
		chat, ok := a.chats.SelectedChat()
		if !ok {
			return
		}
		a.warnAbandoned(len(a.vm.Chats.BeginRename(chat.ID)))
		staged, _ := a.vm.Chats.StagedName(chat.ID)
		a.renderChats()
		a.showPrompt(promptRename, chat.ID, "Rename chat", staged)
	})
	add("save", tcell.KeyEnter, 0, "Enter", "Save name", func() {
		if chat, ok := a.chats.SelectedChat(); ok && a.vm.Chats.RenameState(chat.ID) == edit.Editing {
			a.saveRename(chat.ID)
		}
	})
	add("cancel", tcell.KeyEscape, 0, "Esc", "Cancel rename", func() {
		if chat, ok := a.chats.SelectedChat(); ok {
			a.vm.Chats.CancelRename(chat.ID)
			a.renderChats()
		}
	})
	add("delete", tcell.KeyRune, 'd', "d", "Delete", func() {
		chat, ok := a.chats.SelectedChat()
		if !ok {
			return
		}
		a.showModal(fmt.Sprintf("Delete chat %q?", chat.Name), []string{"Delete", "Cancel"}, func(label string) {
			if label == "Delete" {
				a.deleteChat(chat.ID)
			}
		})
	})
	add("members", tcell.KeyRune, 'm', "m", "Members", func() {
		if chat, ok := a.chats.SelectedChat(); ok {
			a.vm.Chats.OpenMembers(chat.ID)
			a.renderMembers()
			a.pages.Push(pageMembers)
		}
	})
}

func (a *App) warnAbandoned(n int) {
	if n > 0 {
		a.flash.Warn(fmt.Sprintf("Discarded %d unsaved edit(s)", n))
	}
}

func (a *App) renderUsers() {
	s := a.vm.Users
	rows := s.Page()
	staged := make(map[string]entity.Status)
	for _, r := range rows {
		if st, ok := s.StagedStatus(r.User.ID); ok {
			staged[r.User.ID] = st
		}
	}
	a.users.Update(views.UsersPage{
		Rows:   rows,
		Staged: staged,
		Page:   s.PageIndex(),
		Pages:  s.Pages(),
		Shown:  len(s.Visible()),
		Total:  len(s.All()),
		Filter: s.Filter(),
	})
}

func (a *App) applyFilter(f filter.UserFilter) {
	a.vm.Users.SetFilter(f)
	a.pages.Pop()
	a.renderUsers()
}

// toggleStatus stages the next status for the selected user, starting an
// edit when none is open.
func (a *App) toggleStatus() {
	u, ok := a.users.SelectedUser()
	if !ok {
		return
	}
	if a.vm.Users.EditState(u.ID) != edit.Editing {
		a.warnAbandoned(len(a.vm.Users.BeginEdit(u.ID)))
	}
	current, _ := a.vm.Users.StagedStatus(u.ID)
	next := entity.Statuses[(slices.Index(entity.Statuses, current)+1)%len(entity.Statuses)]
	a.vm.Users.StageStatus(u.ID, next)
	a.renderUsers()
}

func (a *App) saveStatus() {
	u, ok := a.users.SelectedUser()
	if !ok || a.vm.Users.EditState(u.ID) != edit.Editing {
		return
	}
	go func() {
		err := a.vm.Users.SaveEdit(a.ctx, u.ID)
		a.app.QueueUpdateDraw(func() {
			a.renderUsers()
			if err != nil {
				a.fail(err)
				return
			}
			a.flash.Info("Saved " + u.DisplayName)
		})
	}()
}

// exportUsers writes the filtered users to the profile's export directory.
func (a *App) exportUsers() {
	users := a.vm.Users.Visible()
	dir := profile.ExportDir(a.vm.Profile)
	path := filepath.Join(dir, "users-"+time.Now().Format("20060102-150405")+".xlsx")
	go func() {
		err := writeExport(dir, path, users)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.logger.Error("export users", zap.String("path", path), zap.Error(err))
				a.flash.Err(fmt.Errorf("export: %w", err))
				return
			}
			a.flash.Info(fmt.Sprintf("Exported %d users to %s", len(users), path))
		})
	}()
}

func writeExport(dir, path string, users []entity.User) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := export.WriteUsers(f, users); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (a *App) renderChats() {
	chats := a.vm.Chats.Chats()
	staged := make(map[string]string)
	for _, c := range chats {
		if name, ok := a.vm.Chats.StagedName(c.ID); ok {
			staged[c.ID] = name
		}
	}
	a.chats.Update(chats, staged)
}

// renderMembers refreshes the membership panel, closing it when its chat
// is gone.
func (a *App) renderMembers() {
	chat, ok := a.vm.Chats.Chat(a.vm.Chats.MembersTarget())
	if !ok {
		if a.pages.Current() == pageMembers {
			a.pages.Pop()
		}
		return
	}
	a.members.Update(chat, a.vm.Chats.Users(), a.vm.Chats.SelectedMember(), a.vm.Chats.MemberMode())
}

func (a *App) createChat(name string) {
	go func() {
		chat, err := a.vm.Chats.Create(a.ctx, name)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.fail(err)
				return
			}
			a.renderChats()
			a.flash.Info("Created " + chat.Name)
		})
	}()
}

func (a *App) saveRename(id string) {
	go func() {
		err := a.vm.Chats.SaveRename(a.ctx, id)
		a.app.QueueUpdateDraw(func() {
			a.renderChats()
			if err != nil {
				a.fail(err)
			}
		})
	}()
}

func (a *App) deleteChat(id string) {
	go func() {
		err := a.vm.Chats.Delete(a.ctx, id)
		a.app.QueueUpdateDraw(func() {
			a.renderChats()
			if err != nil {
				a.fail(err)
				return
			}
			a.flash.Info("Chat deleted")
		})
	}()
}

func (a *App) confirmMember() {
	go func() {
		added, err := a.vm.Chats.ConfirmMember(a.ctx)
		a.app.QueueUpdateDraw(func() {
			a.renderChats()
			a.renderMembers()
			switch {
			case err != nil:
				a.fail(err)
			case added:
				a.flash.Info("Member added")
			default:
				a.flash.Warn("Pick a user to add")
			}
		})
	}()
}
