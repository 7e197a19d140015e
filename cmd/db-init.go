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

	"github.com/spf13/cobra"

	"github.com/hvirta/sanatreeni/internal/app"
	"github.com/hvirta/sanatreeni/internal/infrastructure/config"
	"github.com/hvirta/sanatreeni/internal/vocabulary"
)

// dbInitCmd prepares the state storage then prints a summary of the
// bundled vocabulary
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Alusta tallennustietokanta",
	Long: `Luo tilataulun sqlite- tai postgres-tietokantaan, ajaa
tietovaraston skeemapäivityksen ja tulostaa sanaston yhteenvedon.
Huom: go-sqlite3 vaatii CGO_ENABLED=1 -käännöksen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		cmd.Printf("Tietokanta valmis: %s\n", storageLabel(container.Config.Storage))

		report := container.Migration
		if report.FromVersion != report.ToVersion {
			cmd.Printf("Skeema päivitetty versiosta %d versioon %d, siirretty %d sanaa\n",
				report.FromVersion, report.ToVersion, report.Migrated)
			for _, surface := range report.SkippedRemoved {
				cmd.Printf("  ohitettu, poistunut sanastosta: %s\n", surface)
			}
			for _, surface := range report.SkippedAmbiguous {
				cmd.Printf("  ohitettu, jakautunut useaksi merkitykseksi: %s\n", surface)
			}
		}

		for _, line := range vocabularySummary(container.Vocabulary) {
			cmd.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}

func storageLabel(cfg config.StorageConfig) string {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf("postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	case "memory":
		return "muistinvarainen, ei säily ajokertojen välillä"
	default:
		return "sqlite " + cfg.Path
	}
}

func vocabularySummary(provider *vocabulary.Provider) []string {
	categories := provider.Categories()
	lines := []string{fmt.Sprintf("Sanasto: %d sanaa, %d kategoriaa", provider.Count(), len(categories))}
	for _, cat := range categories {
		lines = append(lines, fmt.Sprintf("  %-12s %3d sanaa  %s", cat.ID, len(provider.ByCategory(cat.ID)), cat.Title))
	}
	return lines
}
