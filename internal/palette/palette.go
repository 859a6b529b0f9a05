// Package palette holds the display colors attached to tiers, statuses and
// alert badges.
package palette

type Color string

const (
	Primary   Color = "#1B5E20"
	Secondary Color = "#2E7D32"
	Danger    Color = "#D32F2F"
	Warning   Color = "#F57C00"
	Success   Color = "#388E3C"
	Gray      Color = "#F5F5F5"
)
