package core

import (
	"context"
	"fmt"
	"io"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/ui"
)

const (
	NoAccountsHint = "No accounts have been created! Use fmp add <account> to create an account."
	maskedPassword = "********"
)

// EntryHeader is the header row of the account table
var EntryHeader = []string{"Account", "Username", "Password"}

// EntrySource lists and loads account records
type EntrySource interface {
	Names() ([]string, error)
	Read(name string) (account.Record, error)
}

// EntryTable is the display-ready account table
type EntryTable struct {
	Header []string
	Rows   [][]string
}

// CollectEntries loads every record in source order. The first read error aborts.
func CollectEntries(ctx context.Context, src EntrySource) (*EntryTable, error) {
	names, err := src.Names()
	if err != nil {
		return nil, err
	}

	table := &EntryTable{
		Header: EntryHeader,
		Rows:   make([][]string, 0, len(names)),
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := src.Read(name)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, []string{name, rec.Username, rec.Password})
	}
	return table, nil
}

// PrintAllEntries renders all accounts as a table, or a hint when there are none
func PrintAllEntries(ctx context.Context, w io.Writer, src EntrySource, mask bool) error {
	table, err := CollectEntries(ctx, src)
	if err != nil {
		return err
	}

	if len(table.Rows) == 0 {
		_, err := fmt.Fprintln(w, NoAccountsHint)
		return err
	}

	if mask {
		for _, row := range table.Rows {
			row[2] = maskedPassword
		}
	}
	return ui.PrintTable(w, table.Header, table.Rows)
}
