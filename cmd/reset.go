/*
Copyright © 2025 hvirta <hvirta@iki.fi>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hvirta/sanatreeni/internal/app"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Tyhjennä kaikki oppimistiedot",
	Long: `Poistaa sanakohtaiset tulokset, kierroshistorian ja oppituntien
edistymisen pysyvästi. Sanasto itsessään säilyy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(cmd, "Poistetaanko kaikki oppimistiedot pysyvästi?") {
			cmd.Println("Peruutettu.")
			return nil
		}

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		if err := container.Knowledge.Reset(ctx); err != nil {
			return fmt.Errorf("tietovaraston tyhjennys epäonnistui: %w", err)
		}
		if err := container.Selection.ResetHistory(ctx); err != nil {
			return fmt.Errorf("kierroshistorian tyhjennys epäonnistui: %w", err)
		}
		if err := container.Progress.Reset(ctx); err != nil {
			return fmt.Errorf("edistymisen tyhjennys epäonnistui: %w", err)
		}

		cmd.Println("Oppimistiedot tyhjennetty.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("yes", "y", false, "ohita varmistuskysymys")
}
