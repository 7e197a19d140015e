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
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hvirta/sanatreeni/internal/app"
	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/usecase"
)

const (
	practiceCategoryKey  = "game.category"
	practiceDirectionKey = "game.direction"
	practiceModeKey      = "game.mode"
	practiceCountKey     = "game.words_per_round"
	practiceFrequencyKey = "game.prioritize_frequency"
)

const (
	maxTries        = 3
	kidsChoiceCount = 4
)

// practiceCmd represents the practice command
var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Harjoittele kierroksellinen sanoja",
	Long: `Kysyy kierroksellisen sanoja ja kirjaa vastaukset muistiin.

Perustilassa vastaus kirjoitetaan itse ja yrityksiä on kolme. Lastentilassa
(--mode kids) vastaus valitaan numeroiduista vaihtoehdoista.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, cleanup, err := app.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("alustus epäonnistui: %w", err)
		}
		defer cleanup()

		pool, category, err := resolvePool(container.Vocabulary, viper.GetString(practiceCategoryKey))
		if err != nil {
			return err
		}

		direction := directionFromConfig(practiceDirectionKey)
		mode := modeFromConfig(practiceModeKey)
		count := viper.GetInt(practiceCountKey)
		frequency := viper.GetBool(practiceFrequencyKey)

		words := container.Selection.SelectRoundWords(ctx, pool, count, category, direction, frequency)
		if len(words) == 0 {
			return errors.New("ei sanoja harjoiteltavaksi")
		}

		session := newPracticeSession(cmd, container.Knowledge, pool, direction, mode)
		outcomes, err := session.run(ctx, words)
		if err != nil {
			return err
		}

		summary, err := container.Knowledge.RecordRoundCompletion(ctx, category, direction, mode, outcomes)
		if err != nil {
			return fmt.Errorf("kierroksen kirjaus epäonnistui: %w", err)
		}
		if _, err := container.Progress.RecordLessonCompletion(ctx, category, roundScores(container.Knowledge, outcomes, direction, mode)); err != nil {
			return fmt.Errorf("oppitunnin kirjaus epäonnistui: %w", err)
		}

		session.printSummary(words, summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("category", "c", "", "kategoria (oletus: koko sanasto)")
	practiceCmd.Flags().StringP("direction", "d", "es-fi", "suunta: es-fi tai fi-es")
	practiceCmd.Flags().StringP("mode", "m", "basic", "pelitila: basic tai kids")
	practiceCmd.Flags().IntP("count", "n", 10, "sanojen määrä kierroksella")
	practiceCmd.Flags().Bool("frequency", true, "painota yleisiä sanoja")

	bindPracticeConfig()
}

func bindPracticeConfig() {
	bindFlagToViper(practiceCategoryKey, practiceCmd.Flags().Lookup("category"))
	bindFlagToViper(practiceDirectionKey, practiceCmd.Flags().Lookup("direction"))
	bindFlagToViper(practiceModeKey, practiceCmd.Flags().Lookup("mode"))
	bindFlagToViper(practiceCountKey, practiceCmd.Flags().Lookup("count"))
	bindFlagToViper(practiceFrequencyKey, practiceCmd.Flags().Lookup("frequency"))
}

// practiceSession runs one interactive round and records every answer as it
// is given, so an interrupted round still counts the words already asked.
type practiceSession struct {
	cmd       *cobra.Command
	knowledge usecase.KnowledgeUsecase
	reader    *bufio.Reader
	bold      *color.Color
	pool      []entity.Word
	direction entity.Direction
	mode      entity.GameMode
}

func newPracticeSession(cmd *cobra.Command, knowledge usecase.KnowledgeUsecase, pool []entity.Word, direction entity.Direction, mode entity.GameMode) *practiceSession {
	return &practiceSession{
		cmd:       cmd,
		knowledge: knowledge,
		reader:    bufio.NewReader(cmd.InOrStdin()),
		bold:      color.New(color.Bold),
		pool:      pool,
		direction: direction,
		mode:      mode,
	}
}

func (s *practiceSession) run(ctx context.Context, words []entity.Word) ([]entity.WordOutcome, error) {
	outcomes := make([]entity.WordOutcome, 0, len(words))
	for i, word := range words {
		var (
			outcome entity.AnswerOutcome
			err     error
		)
		if s.mode == entity.ModeKids {
			outcome, err = s.askChoice(i+1, len(words), word)
		} else {
			outcome, err = s.askTyped(i+1, len(words), word)
		}
		if err != nil {
			return nil, err
		}
		if err := s.knowledge.RecordAnswer(ctx, word.Identity(), word.Spanish, s.direction, outcome, s.mode); err != nil {
			return nil, fmt.Errorf("vastauksen kirjaus epäonnistui: %w", err)
		}
		outcomes = append(outcomes, entity.WordOutcome{Identity: word.Identity(), Outcome: outcome})
	}
	return outcomes, nil
}

// askTyped asks for a typed answer with up to three tries.
func (s *practiceSession) askTyped(position, total int, word entity.Word) (entity.AnswerOutcome, error) {
	for try := 1; try <= maxTries; try++ {
		s.bold.Printf("%d/%d %s: ", position, total, s.prompt(word))
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("syötteen luku epäonnistui: %w", err)
		}
		if word.AcceptsAnswer(s.direction, line) {
			color.Green("✅ Oikein!")
			return entity.OutcomeForTry(try), nil
		}
		if try < maxTries {
			color.Red("❌ Väärin, yritä uudelleen (%d/%d)", try, maxTries)
		}
	}
	color.Red("❌ Väärin. Oikea vastaus: %s", strings.Join(word.Answers(s.direction), ", "))
	return entity.OutcomeFailed, nil
}

// askChoice asks a single-try multiple-choice question. Typing the answer
// instead of a number is also accepted.
func (s *practiceSession) askChoice(position, total int, word entity.Word) (entity.AnswerOutcome, error) {
	options := s.choices(word)
	s.bold.Printf("%d/%d %s\n", position, total, s.prompt(word))
	for i, option := range options {
		s.cmd.Printf("  %d) %s\n", i+1, option)
	}
	s.bold.Print("Valinta: ")
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("syötteen luku epäonnistui: %w", err)
	}

	answer := strings.TrimSpace(line)
	if choice, convErr := strconv.Atoi(answer); convErr == nil && choice >= 1 && choice <= len(options) {
		answer = options[choice-1]
	}
	if word.AcceptsAnswer(s.direction, answer) {
		color.Green("✅ Oikein!")
		return entity.OutcomeFirstTry, nil
	}
	color.Red("❌ Väärin. Oikea vastaus: %s", answerText(word, s.direction))
	return entity.OutcomeFailed, nil
}

// prompt renders the question side of the card. Words carrying a sense
// label show it so the learner knows which sense is asked, e.g. "estar"
// prompts as "olla (olotila)" in the fi-es direction. A label identical to
// the prompt itself is dropped.
//
// TODO: move sense labels from literal glosses to usage cues in the data
// files, so a label never spells out the expected answer.
func (s *practiceSession) prompt(word entity.Word) string {
	question := word.Prompt(s.direction)
	if word.SenseLabel == "" {
		return question
	}
	if s.direction == entity.DirectionEsToFi {
		return word.DisplayName()
	}
	if word.SenseLabel == question {
		return question
	}
	return question + " (" + word.SenseLabel + ")"
}

// choices builds the option list for a multiple-choice question: the correct
// answer plus distractors drawn from the same pool.
func (s *practiceSession) choices(word entity.Word) []string {
	options := []string{answerText(word, s.direction)}
	candidates := lo.Shuffle(append([]entity.Word(nil), s.pool...))
	for _, candidate := range candidates {
		if candidate.Identity() == word.Identity() {
			continue
		}
		text := answerText(candidate, s.direction)
		if text == "" || lo.Contains(options, text) {
			continue
		}
		options = append(options, text)
		if len(options) == kidsChoiceCount {
			break
		}
	}
	return lo.Shuffle(options)
}

func (s *practiceSession) printSummary(words []entity.Word, summary entity.RoundSummary) {
	byOutcome := lo.CountValuesBy(summary.Outcomes, func(oc entity.WordOutcome) entity.AnswerOutcome {
		return oc.Outcome
	})

	s.cmd.Println()
	s.bold.Println("Kierros valmis!")
	s.cmd.Printf("Tulos: %d oikein heti, %d toisella, %d kolmannella, %d väärin\n",
		byOutcome[entity.OutcomeFirstTry], byOutcome[entity.OutcomeSecondTry],
		byOutcome[entity.OutcomeThirdTry], byOutcome[entity.OutcomeFailed])

	missed := lo.Filter(summary.Outcomes, func(oc entity.WordOutcome, _ int) bool {
		return oc.Outcome == entity.OutcomeFailed
	})
	if len(missed) == 0 {
		return
	}
	index := lo.KeyBy(words, func(w entity.Word) string { return w.Identity() })
	s.cmd.Println("Kertaa vielä:")
	for _, oc := range missed {
		word, ok := index[oc.Identity]
		if !ok {
			continue
		}
		s.cmd.Printf("  %s = %s\n", word.DisplayName(), strings.Join(word.Finnish, ", "))
	}
}

// answerText is the surface form shown for a word on the answer side.
func answerText(word entity.Word, direction entity.Direction) string {
	answers := word.Answers(direction)
	if len(answers) == 0 {
		return ""
	}
	return answers[0]
}

// roundScores collects the post-round scores of the practiced words for the
// lesson progress ladder.
func roundScores(knowledge usecase.KnowledgeUsecase, outcomes []entity.WordOutcome, direction entity.Direction, mode entity.GameMode) map[string]float64 {
	scores := make(map[string]float64, len(outcomes))
	for _, oc := range outcomes {
		if record, ok := knowledge.WordRecord(oc.Identity, direction, mode); ok {
			scores[oc.Identity] = record.Score
		}
	}
	return scores
}
