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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hvirta/sanatreeni/internal/app"
	"github.com/hvirta/sanatreeni/internal/usecase/transfer"
)

const (
	exportOutputKey = "transfer.export.output"
	exportGzipKey   = "transfer.export.gzip"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Vie oppimistiedot varmuuskopioksi",
	Long: `Kirjoittaa koko tietovaraston versioituna JSON-dokumenttina
tiedostoon tai vakiotulosteeseen. Pääte .gz pakkaa tulosteen
automaattisesti.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		if outputPath == "" {
			outputPath = defaultExportFilename(gzipEnabled)
		}
		if !gzipEnabled && outputPath != "-" && strings.HasSuffix(strings.ToLower(outputPath), ".gz") {
			gzipEnabled = true
		}

		var (
			writer   io.Writer = cmd.OutOrStdout()
			closeFns []func() error
		)

		if outputPath != "-" {
			file, createErr := os.Create(filepath.Clean(outputPath))
			if createErr != nil {
				return fmt.Errorf("varmuuskopion luonti epäonnistui: %w", createErr)
			}
			writer = file
			closeFns = append(closeFns, file.Close)
		}

		if gzipEnabled {
			gz := gzip.NewWriter(writer)
			writer = gz
			closeFns = append([]func() error{gz.Close}, closeFns...)
		}

		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		progress := newCLIProgress(cmd.ErrOrStderr())
		if err := container.Transfer.Export(ctx, writer, transfer.WithProgressReporter(progress)); err != nil {
			return fmt.Errorf("vienti epäonnistui: %w", err)
		}

		if outputPath == "-" {
			cmd.Println("Vienti valmis: kirjoitettu vakiotulosteeseen")
		} else {
			cmd.Printf("Vienti valmis: %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "varmuuskopion polku, - kirjoittaa vakiotulosteeseen")
	exportCmd.Flags().Bool("gzip", false, "pakkaa tuloste gzip-muotoon")

	bindExportConfig()
}

func defaultExportFilename(gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	filename := fmt.Sprintf("sanatreeni-backup-%s.json", ts)
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}

func bindExportConfig() {
	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
}

// cliProgress prints export progress to stderr, at most a handful of lines
// regardless of store size.
type cliProgress struct {
	out     io.Writer
	total   int
	current int
	printed int
	step    int
}

func newCLIProgress(out io.Writer) *cliProgress {
	return &cliProgress{out: out}
}

func (p *cliProgress) Start(totalWords int) {
	if totalWords < 0 {
		totalWords = 0
	}
	p.total = totalWords
	p.current = 0
	p.printed = 0
	p.step = progressStep(totalWords)
	fmt.Fprintf(p.out, "Viedään %d sanan tiedot\n", totalWords)
}

func (p *cliProgress) Increment(delta int) {
	if delta <= 0 {
		return
	}
	p.current += delta
	if p.current == p.total || p.printed == 0 || p.current-p.printed >= p.step {
		fmt.Fprintf(p.out, "Viety %d/%d\n", p.current, p.total)
		p.printed = p.current
	}
}

func (p *cliProgress) Finish() {
	if p.current != p.printed {
		fmt.Fprintf(p.out, "Viety %d/%d\n", p.current, p.total)
		p.printed = p.current
	}
	fmt.Fprintf(p.out, "Vienti käsitelty: %d sanaa\n", p.current)
}

func progressStep(total int) int {
	if total <= 0 {
		return 100
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	return step
}
