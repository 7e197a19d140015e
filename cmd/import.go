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
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hvirta/sanatreeni/internal/app"
)

const (
	importInputKey = "transfer.import.input"
	importGzipKey  = "transfer.import.gzip"
	importForceKey = "transfer.import.force"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Tuo varmuuskopio ja yhdistä paikallisiin tietoihin",
	Long: `Lukee viedyn varmuuskopion ja yhdistää sen paikalliseen
tietovarastoon. Jos sama sana on harjoiteltu molemmissa, tuoreempi
merkintä voittaa. Kelvoton tiedosto ei muuta mitään.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		force := viper.GetBool(importForceKey)
		if inputPath == "" {
			return errors.New("anna varmuuskopion polku --input-lipulla tai - vakiosyötteelle")
		}
		if !gzipEnabled && inputPath != "-" && strings.HasSuffix(strings.ToLower(inputPath), ".gz") {
			gzipEnabled = true
		}

		// Reading from stdin leaves no channel for a confirmation prompt.
		if inputPath == "-" && !force {
			return errors.New("vakiosyötteestä tuonti vaatii --force-lipun")
		}
		if !force && !confirm(cmd, fmt.Sprintf("Tuodaanko %s ja yhdistetäänkö paikallisiin tietoihin?", inputPath)) {
			cmd.Println("Peruutettu.")
			return nil
		}

		var (
			reader  io.Reader = cmd.InOrStdin()
			closers []func() error
		)

		if inputPath != "-" {
			file, openErr := os.Open(filepath.Clean(inputPath))
			if openErr != nil {
				return fmt.Errorf("varmuuskopion avaus epäonnistui: %w", openErr)
			}
			reader = file
			closers = append(closers, file.Close)
		}

		if gzipEnabled {
			gzr, gzErr := gzip.NewReader(reader)
			if gzErr != nil {
				return fmt.Errorf("gzip-lukijan luonti epäonnistui: %w", gzErr)
			}
			reader = gzr
			closers = append([]func() error{gzr.Close}, closers...)
		}

		defer func() {
			for _, closer := range closers {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		report, err := container.Transfer.Import(ctx, reader)
		if err != nil {
			return fmt.Errorf("tuonti epäonnistui: %w", err)
		}

		cmd.Printf("Tuonti valmis: %d uutta, %d päivitetty, %d säilytetty\n",
			report.Added, report.Merged, report.Kept)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "varmuuskopion polku, - lukee vakiosyötteestä")
	importCmd.Flags().Bool("gzip", false, "syöte on gzip-pakattu")
	importCmd.Flags().Bool("force", false, "ohita varmistuskysymys")

	bindImportConfig()
}

func bindImportConfig() {
	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importForceKey, importCmd.Flags().Lookup("force"))
}
