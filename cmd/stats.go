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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hvirta/sanatreeni/internal/app"
	"github.com/hvirta/sanatreeni/internal/entity"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Näytä oppimistilastot",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		stats := container.Knowledge.Statistics()
		learning := container.Config.Learning
		bold := color.New(color.Bold)

		bold.Println("Tilastot")
		cmd.Printf("  sanastossa:   %d sanaa\n", container.Vocabulary.Count())
		cmd.Printf("  harjoiteltu:  %d\n", stats.WordsPracticed)
		cmd.Printf("  hallussa:     %d (pisteet ≥ %.0f)\n", stats.WordsMastered, learning.MasteredThreshold)
		cmd.Printf("  heikkoja:     %d (pisteet < %.0f)\n", stats.WordsWeak, learning.WeakThreshold)
		cmd.Printf("  kierroksia:   %d%s\n", stats.TotalRounds, roundsByModeSuffix(stats.RoundsByMode))
		if due := container.Progress.DueLessons(); len(due) > 0 {
			cmd.Printf("  kertausvuorossa: %d oppituntia\n", len(due))
		}

		for _, direction := range entity.Directions() {
			cmd.Println()
			bold.Printf("Kategoriat (%s)\n", direction)
			for _, cat := range container.Vocabulary.Categories() {
				words := container.Vocabulary.ByCategory(cat.ID)
				knowledge := container.Knowledge.CategoryKnowledge(cat.ID, words)
				dk := knowledge.PerDirection[direction]
				cmd.Printf("  %-12s %3d sanaa  %3d harjoiteltu  %3d osattu  ka %5.1f\n",
					cat.ID, knowledge.TotalWords, dk.Practiced, dk.Known, dk.AverageScore)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func roundsByModeSuffix(byMode map[entity.GameMode]int) string {
	parts := make([]string, 0, len(byMode))
	for _, mode := range []entity.GameMode{entity.ModeBasic, entity.ModeKids} {
		if count := byMode[mode]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", mode, count))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
