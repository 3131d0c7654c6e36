package config

import (
	"fmt"

	"github.com/derailed/tcell/v2"
)

// Color represents a color in the application
type Color string

const (
	// DefaultColor represents a default color
	DefaultColor Color = "default"

	// TransparentColor represents the terminal bg color
	TransparentColor Color = "-"
)

// NewColor returns a new color
func NewColor(c string) Color {
	return Color(c)
}

// String returns color as string
func (c Color) String() string {
	if c.isHex() {
		return string(c)
	}
	if c == DefaultColor {
		return "-"
	}
	col := c.Color().TrueColor().Hex()
	if col < 0 {
		return "-"
	}
	return fmt.Sprintf("#%06x", col)
}

func (c Color) isHex() bool {
	return len(c) == 7 && c[0] == '#'
}

// Color returns a view color
func (c Color) Color() tcell.Color {
	if c == DefaultColor {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// MailColors defines colors for message states and body styling
type MailColors struct {
	UnreadColor Color `yaml:"unreadColor"`
	ReadColor   Color `yaml:"readColor"`
	TagColor    Color `yaml:"tagColor"`
	QuoteColor  Color `yaml:"quoteColor"`
	HeaderColor Color `yaml:"headerColor"`
	GoodColor   Color `yaml:"goodColor"`
	BadColor    Color `yaml:"badColor"`
}

// FrameColors defines colors for UI frame elements
type FrameColors struct {
	Border struct {
		FgColor    Color `yaml:"fgColor"`
		FocusColor Color `yaml:"focusColor"`
	} `yaml:"border"`
	Title struct {
		FgColor Color `yaml:"fgColor"`
		BgColor Color `yaml:"bgColor"`
	} `yaml:"title"`
}

// TableColors defines colors for table elements
type TableColors struct {
	FgColor       Color `yaml:"fgColor"`
	BgColor       Color `yaml:"bgColor"`
	HeaderFgColor Color `yaml:"headerFgColor"`
	HeaderBgColor Color `yaml:"headerBgColor"`
}

// BodyColors defines colors for body elements
type BodyColors struct {
	FgColor Color `yaml:"fgColor"`
	BgColor Color `yaml:"bgColor"`
}

// ColorsConfig defines the complete color configuration
type ColorsConfig struct {
	Body  BodyColors  `yaml:"body"`
	Frame FrameColors `yaml:"frame"`
	Table TableColors `yaml:"table"`
	Mail  MailColors  `yaml:"mail"`
}

// DefaultColors returns the default color configuration
func DefaultColors() *ColorsConfig {
	cfg := &ColorsConfig{
		Body: BodyColors{
			FgColor: NewColor("#f8f8f2"),
			BgColor: NewColor("#282a36"),
		},
		Table: TableColors{
			FgColor:       NewColor("#f8f8f2"),
			BgColor:       NewColor("#282a36"),
			HeaderFgColor: NewColor("#50fa7b"),
			HeaderBgColor: NewColor("#282a36"),
		},
		Mail: MailColors{
			UnreadColor: NewColor("#ffb86c"),
			ReadColor:   NewColor("#6272a4"),
			TagColor:    NewColor("#8be9fd"),
			QuoteColor:  NewColor("#6272a4"),
			HeaderColor: NewColor("#50fa7b"),
			GoodColor:   NewColor("#50fa7b"),
			BadColor:    NewColor("#ff5555"),
		},
	}
	cfg.Frame.Border.FgColor = NewColor("#44475a")
	cfg.Frame.Border.FocusColor = NewColor("#6272a4")
	cfg.Frame.Title.FgColor = NewColor("#f8f8f2")
	cfg.Frame.Title.BgColor = NewColor("#282a36")
	return cfg
}
