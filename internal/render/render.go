// Package render prints version listings as text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/store"
	"github.com/conn-castle/m/internal/version"
)

const (
	activeMark    = "✔"
	installedMark = "•"
)

// Item is one JSON listing entry.
type Item struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Items converts store entries to listing entries. It never returns nil.
func Items(entries []store.Entry) []Item {
	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		out = append(out, Item{Name: e.Version.Raw, Active: e.Active})
	}
	return out
}

// JSON writes items as an indented array; an empty listing is exactly [].
func JSON(w io.Writer, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// Installed prints installed versions with the active one checked.
func Installed(w io.Writer, entries []store.Entry, asJSON bool) error {
	if asJSON {
		return JSON(w, Items(entries))
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, messages.NoInstalledVersions)
		return err
	}
	for _, e := range entries {
		if err := line(w, e.Version.Raw, e.Active, false); err != nil {
			return err
		}
	}
	return nil
}

// Available prints feed versions, checking the active one and marking the
// other installed ones.
func Available(w io.Writer, versions []version.Version, installed []store.Entry, asJSON bool) error {
	state := make(map[string]bool, len(installed))
	for _, e := range installed {
		state[e.Version.Raw] = e.Active
	}
	if asJSON {
		items := make([]Item, 0, len(versions))
		for _, v := range versions {
			items = append(items, Item{Name: v.Raw, Active: state[v.Raw]})
		}
		return JSON(w, items)
	}
	for _, v := range versions {
		active, ok := state[v.Raw]
		if err := line(w, v.Raw, active, ok && !active); err != nil {
			return err
		}
	}
	return nil
}

func line(w io.Writer, raw string, active bool, installed bool) error {
	var err error
	switch {
	case active:
		_, err = fmt.Fprintf(w, "  %s %s\n", color.GreenString(activeMark), color.New(color.Bold).Sprint(raw))
	case installed:
		_, err = fmt.Fprintf(w, "  %s %s\n", color.CyanString(installedMark), raw)
	default:
		_, err = fmt.Fprintf(w, "    %s\n", raw)
	}
	return err
}
