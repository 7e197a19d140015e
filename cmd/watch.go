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
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-co-op/gocron"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hvirta/sanatreeni/internal/app"
	"github.com/hvirta/sanatreeni/internal/entity"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Muistuta kertausvuoroon tulevista sanoista ja oppitunneista",
	Long: `Jää taustalle ja tarkistaa säännöllisin väliajoin, onko sanoja
tai oppitunteja tullut kertausvuoroon. Väli asetetaan avaimella
watch.interval (oletus tunti). Ctrl+C lopettaa.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		interval := container.Config.Watch.Interval
		if interval <= 0 {
			interval = time.Hour
		}

		direction := directionFromConfig(practiceDirectionKey)
		check := func() {
			dueWords := container.Selection.DueWords(container.Vocabulary.All(), direction)
			dueLessons := container.Progress.DueLessons()
			if len(dueWords) == 0 && len(dueLessons) == 0 {
				container.Logger.Debug("nothing due")
				return
			}
			if len(dueWords) > 0 {
				preview := lo.Map(lo.Slice(dueWords, 0, 5), func(word entity.Word, _ int) string {
					return word.DisplayName()
				})
				suffix := ""
				if len(dueWords) > len(preview) {
					suffix = ", ..."
				}
				color.Yellow("Kertausvuorossa %d sanaa: %s%s", len(dueWords), strings.Join(preview, ", "), suffix)
			}
			if len(dueLessons) > 0 {
				names := lo.Map(dueLessons, func(lesson *entity.LessonProgress, _ int) string {
					return lesson.LessonID
				})
				color.Yellow("Kertausvuorossa %d oppituntia: %s", len(dueLessons), strings.Join(names, ", "))
			}
		}

		scheduler := gocron.NewScheduler(time.UTC)
		if _, err := scheduler.Every(interval).Do(check); err != nil {
			return fmt.Errorf("ajastus epäonnistui: %w", err)
		}

		check()
		scheduler.StartAsync()
		defer scheduler.Stop()

		cmd.Printf("Seurataan kertauksia %s välein. Ctrl+C lopettaa.\n", interval)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
		}

		cmd.Println("Seuranta lopetettu.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
