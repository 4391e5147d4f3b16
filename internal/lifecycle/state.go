package lifecycle

import (
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/version"
)

// State is a step of the install state machine.
type State int

// States in the order an install visits them.
const (
	StateStart State = iota
	StateResolve
	StateAlreadyActive
	StateNeedsInstall
	StatePreInstallHooks
	StateDownload
	StateExtract
	StateRecord
	StatePreChangeHooks
	StateActivate
	StatePostChangeHooks
	StatePostInstallHooks
	StateDone
)

var stateNames = map[State]string{
	StateStart:            "Start",
	StateResolve:          "Resolve",
	StateAlreadyActive:    "AlreadyActive",
	StateNeedsInstall:     "NeedsInstall",
	StatePreInstallHooks:  "PreInstallHooks",
	StateDownload:         "Download",
	StateExtract:          "Extract",
	StateRecord:           "Record",
	StatePreChangeHooks:   "PreChangeHooks",
	StateActivate:         "Activate",
	StatePostChangeHooks:  "PostChangeHooks",
	StatePostInstallHooks: "PostInstallHooks",
	StateDone:             "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Result is how an install invocation ended.
type Result int

// Result values.
const (
	// ResultNone means the run stopped before reaching a terminal state.
	ResultNone Result = iota
	// ResultAlreadyActive: nothing ran and nothing changed.
	ResultAlreadyActive
	// ResultActivated: an installed but inactive version became active.
	ResultActivated
	// ResultInstalled: the version was materialized and activated.
	ResultInstalled
	// ResultDeclined: the user declined the download prompt.
	ResultDeclined
)

// Outcome reports how far an invocation got. Reached lists every state
// entered, so a failure shows which steps already committed.
type Outcome struct {
	Family      family.Family
	Version     version.Version
	Result      Result
	Previous    version.Version
	HadPrevious bool
	Reached     []State
}

// Last returns the final state entered.
func (o Outcome) Last() State {
	if len(o.Reached) == 0 {
		return StateStart
	}
	return o.Reached[len(o.Reached)-1]
}
