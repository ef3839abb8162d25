package recipe

import "strings"

// OptionState is the tri-state of a named build option.
type OptionState int

const (
	Unset OptionState = iota
	Enabled
	Disabled
)

func (s OptionState) Enabled() bool  { return s == Enabled }
func (s OptionState) Disabled() bool { return s == Disabled }

// Options is a list of option names, each optionally negated with a
// leading '!'.
type Options []string

// Get returns the state of name. The last mention wins.
func (o Options) Get(name string) OptionState {
	state := Unset
	for _, v := range o {
		switch {
		case v == name:
			state = Enabled
		case strings.TrimPrefix(v, "!") == name:
			state = Disabled
		}
	}
	return state
}

// Resolve returns the recipe's own state for name, falling back to defaults
// when the recipe leaves it unset.
func Resolve(own, defaults Options, name string) OptionState {
	if s := own.Get(name); s != Unset {
		return s
	}
	return defaults.Get(name)
}
