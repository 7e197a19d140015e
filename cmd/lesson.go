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

// lessonCmd represents the lesson command
var lessonCmd = &cobra.Command{
	Use:   "lesson [kategoria]",
	Short: "Käy kokonainen oppitunti läpi",
	Long: `Kysyy kategorian jokaisen sanan kerran ja kirjaa oppitunnin
suoritetuksi. Suoritusten keskiarvo määrää seuraavan kertausajan: vahva
suoritus pidentää kertausväliä, heikko palauttaa sen alkuun.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		pool, category, err := resolvePool(container.Vocabulary, args[0])
		if err != nil {
			return err
		}

		directionFlag, _ := cmd.Flags().GetString("direction")
		modeFlag, _ := cmd.Flags().GetString("mode")
		direction := directionOrConfig(directionFlag, practiceDirectionKey)
		mode := modeOrConfig(modeFlag, practiceModeKey)

		words := container.Selection.SelectRoundWords(ctx, pool, len(pool), category, direction, false)

		session := newPracticeSession(cmd, container.Knowledge, pool, direction, mode)
		outcomes, err := session.run(ctx, words)
		if err != nil {
			return err
		}

		summary, err := container.Knowledge.RecordRoundCompletion(ctx, category, direction, mode, outcomes)
		if err != nil {
			return fmt.Errorf("kierroksen kirjaus epäonnistui: %w", err)
		}
		progress, err := container.Progress.RecordLessonCompletion(ctx, category, roundScores(container.Knowledge, outcomes, direction, mode))
		if err != nil {
			return fmt.Errorf("oppitunnin kirjaus epäonnistui: %w", err)
		}

		session.printSummary(words, summary)
		cmd.Printf("Seuraava kertaus %s (porras %d/%d)\n",
			progress.NextReviewAt.Format("2006-01-02"),
			progress.IntervalIndex+1, len(container.Config.Learning.ReviewLadderDays))
		return nil
	},
}

// lessonDueCmd lists the lessons whose review time has passed
var lessonDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Näytä kertausvuorossa olevat oppitunnit",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		due := container.Progress.DueLessons()
		if len(due) == 0 {
			cmd.Println("Ei kertausvuorossa olevia oppitunteja.")
			return nil
		}
		for _, lesson := range due {
			cmd.Printf("%-16s erääntyi %s, suorituksia %d\n",
				lesson.LessonID, lesson.NextReviewAt.Format("2006-01-02"), lesson.CompletedCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lessonCmd)
	lessonCmd.AddCommand(lessonDueCmd)

	lessonCmd.Flags().StringP("direction", "d", "", "suunta: es-fi tai fi-es (oletus asetuksista)")
	lessonCmd.Flags().StringP("mode", "m", "", "pelitila: basic tai kids (oletus asetuksista)")
}
