package cmd

import (
	"fmt"

	"github.com/documetrics/docudash/core"
	"github.com/spf13/cobra"
)

// themeCmd groups the theme preference commands.
var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the color theme (aquatic or neon)",
	Long: `The theme picks the palette used for metric bands in tables. It is saved in
the preferences table of the cache backend and survives restarts.

Examples:
  docudash theme get
  docudash theme set neon
  docudash theme toggle`,
}

var themeGetCmd = &cobra.Command{
	Use:     "get",
	Short:   "Print the current theme",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, err := fmt.Println(newApp().Themes().Current())
		return err
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <aquatic|neon>",
	Short:     "Switch to a theme and save it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"aquatic", "neon"},
	PreRunE:   sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		theme, err := core.ParseTheme(args[0])
		if err != nil {
			return err
		}
		if err := newApp().Themes().Set(theme); err != nil {
			return err
		}
		_, err = fmt.Printf("Theme set to %s.\n", theme)
		return err
	},
}

var themeToggleCmd = &cobra.Command{
	Use:     "toggle",
	Short:   "Flip between aquatic and neon",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		theme, err := newApp().Themes().Toggle()
		if err != nil {
			return err
		}
		_, err = fmt.Printf("Theme set to %s.\n", theme)
		return err
	},
}
