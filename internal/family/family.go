// Package family enumerates the independently versioned MongoDB artifacts.
package family

import "fmt"

// Family is one artifact family. Each family owns its own version namespace,
// release feed, installation root, and active pointer.
type Family int

// Family values.
const (
	Server Family = iota
	Tools
	ModernShell
	LegacyShell
)

// All lists every family in display order.
var All = []Family{Server, Tools, ModernShell, LegacyShell}

type info struct {
	key     string
	display string
	product string
	binary  string
}

var infos = map[Family]info{
	Server: {
		key:     "server",
		display: "MongoDB Server",
		product: "MongoDB",
		binary:  "mongod",
	},
	Tools: {
		key:     "tools",
		display: "MongoDB Database Tools",
		product: "MongoDB Database Tools",
		binary:  "mongodump",
	},
	ModernShell: {
		key:     "mongosh",
		display: "MongoDB Shell",
		product: "MongoDB Shell",
		binary:  "mongosh",
	},
	LegacyShell: {
		key:     "legacy-shell",
		display: "MongoDB Legacy Shell",
		product: "MongoDB Legacy Shell",
		binary:  "mongo",
	},
}

// String returns the CLI key, which doubles as the on-disk directory name.
func (f Family) String() string {
	if in, ok := infos[f]; ok {
		return in.key
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// Display is the name used in activation messages, e.g. "MongoDB Server".
func (f Family) Display() string {
	return infos[f].display
}

// Product is the name used in removal messages, e.g. "MongoDB".
func (f Family) Product() string {
	return infos[f].product
}

// PrimaryBinary is the executable the family is named for.
func (f Family) PrimaryBinary() string {
	return infos[f].binary
}
