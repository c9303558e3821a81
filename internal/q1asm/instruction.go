package q1asm

import (
	"fmt"
	"strings"
)

// Mnemonics of the instructions emitted by the pulse compiler.
const (
	Play         = "play"
	SetAwgGain   = "set_awg_gain"
	SetAwgOffset = "set_awg_offs"
	UpdParam     = "upd_param"
	Wait         = "wait"
	SetMarker    = "set_mrk"
	Move         = "move"
	Add          = "add"
	Sub          = "sub"
	Loop         = "loop"
	Stop         = "stop"
	Nop          = "nop"
	NewLine      = ""
)

// Listing column widths.
const (
	labelColWidth = 12
	mnemonicWidth = 14
	argsColWidth  = 24
)

// Instruction is one row of a program listing. A row with an empty
// Mnemonic carries only a label or is a blank separator line.
type Instruction struct {
	Label    string   `json:"label,omitempty"`
	Mnemonic string   `json:"mnemonic"`
	Args     []string `json:"args,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// ArgString returns the arguments joined the way Q1ASM expects.
func (in Instruction) ArgString() string {
	return strings.Join(in.Args, ",")
}

// String renders the row as one listing line without trailing spaces.
func (in Instruction) String() string {
	var b strings.Builder
	label := ""
	if in.Label != "" {
		label = in.Label + ":"
	}
	fmt.Fprintf(&b, "%-*s", labelColWidth, label)
	if in.Mnemonic != "" {
		fmt.Fprintf(&b, "%-*s", mnemonicWidth, in.Mnemonic)
		fmt.Fprintf(&b, "%-*s", argsColWidth, in.ArgString())
	}
	if in.Comment != "" {
		b.WriteString("# ")
		b.WriteString(in.Comment)
	}
	return strings.TrimRight(b.String(), " ")
}

func formatArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case Register:
			out[i] = v.String()
		case string:
			out[i] = v
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
