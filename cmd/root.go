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
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sanatreeni",
	Short: "Espanjan sanaston harjoittelupeli suomenkielisille",
	Long: `sanatreeni on komentorivipeli espanjan sanaston opetteluun.

Sanat valitaan painotetulla satunnaisotannalla: uudet ja heikosti osatut
sanat nousevat kierroksille useammin, hyvin osatut harvemmin. Edistyminen
tallentuu paikalliseen tietokantaan ja sen voi viedä varmuuskopioksi.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "asetustiedoston polku (env-muoto)")
	rootCmd.PersistentFlags().String("storage-driver", "sqlite", "tallennusajuri: sqlite, postgres tai memory")
	rootCmd.PersistentFlags().String("storage-path", "sanatreeni.db", "sqlite-tietokannan polku")

	bindFlagToViper("config.file", rootCmd.PersistentFlags().Lookup("config"))
	bindFlagToViper("storage.driver", rootCmd.PersistentFlags().Lookup("storage-driver"))
	bindFlagToViper("storage.path", rootCmd.PersistentFlags().Lookup("storage-path"))
}
