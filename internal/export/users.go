// Package export writes and reads the users table as an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matheus3301/chatadmin/internal/entity"
)

// SheetName is the worksheet holding the users.
const SheetName = "Users"

// Header is the first row of the users sheet.
var Header = []string{"No", "Name", "Email", "Phone Number", "Status"}

// ErrHeader is returned by ReadUsers when the first row is not Header.
var ErrHeader = errors.New("export: unexpected header row")

// WriteUsers writes users, in order, as a workbook numbered from 1.
func WriteUsers(w io.Writer, users []entity.User) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	for i, u := range users {
		row := i + 2
		values := []any{i + 1, u.DisplayName, u.Email, u.PhoneNumber, string(u.EffectiveStatus())}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(SheetName, "B", "D", 24); err != nil {
		return err
	}
	return f.Write(w)
}

// ReadUsers parses a workbook written by WriteUsers. Blank rows are skipped
// and the No column is ignored. Returned users have no ID.
func ReadUsers(r io.Reader) ([]entity.User, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", SheetName, err)
	}
	if len(rows) == 0 || !isHeader(rows[0]) {
		return nil, ErrHeader
	}

	var users []entity.User
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		u := entity.User{
			DisplayName: cell(row, 1),
			Email:       cell(row, 2),
			PhoneNumber: cell(row, 3),
		}
		if s := cell(row, 4); s != "" {
			st, err := entity.ParseStatus(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			u.Status = st
		}
		users = append(users, u)
	}
	return users, nil
}

func isHeader(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, h := range Header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), h) {
			return false
		}
	}
	return true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Match splits imported users into new ones and updates of existing ones.
// Users match by email, ignoring case; updates carry the existing ID. Users
// without an email are always new, and an imported status left empty keeps
// the existing one.
func Match(existing, imported []entity.User) (create, update []entity.User) {
	byEmail := make(map[string]entity.User, len(existing))
	for _, u := range existing {
		if key := emailKey(u.Email); key != "" {
			if _, ok := byEmail[key]; !ok {
				byEmail[key] = u
			}
		}
	}
	for _, u := range imported {
		old, ok := byEmail[emailKey(u.Email)]
		if !ok {
			create = append(create, u)
			continue
		}
		u.ID = old.ID
		if u.Status == "" {
			u.Status = old.Status
		}
		update = append(update, u)
	}
	return create, update
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
