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

	"github.com/hvirta/sanatreeni/internal/repository"
	"github.com/hvirta/sanatreeni/internal/vocabulary"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Listaa sanasto suodattimella",
	Long: `Listaa sanaston valinnaisella CEL-suodattimella, esimerkiksi:

  sanatreeni list --filter 'category == "food" && frequencyRank <= 1000'
  sanatreeni list --filter 'pos == "verb"' --order-by 'frequencyRank'

Kenttiä: identity, spanish, category, pos, gender, frequencyRank.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		pageNo, _ := cmd.Flags().GetInt32("page")
		pageSize, _ := cmd.Flags().GetInt32("page-size")

		provider, err := vocabulary.Load()
		if err != nil {
			return fmt.Errorf("sanaston lataus epäonnistui: %w", err)
		}

		words, err := provider.List(repository.ListQuery{
			Pagination: repository.Pagination{PageNo: pageNo, PageSize: pageSize},
			Filter:     filter,
			OrderBy:    orderBy,
		})
		if err != nil {
			return fmt.Errorf("virheellinen kysely: %w", err)
		}

		for _, word := range words {
			rank := ""
			if word.FrequencyRank > 0 {
				rank = fmt.Sprintf("#%d", word.FrequencyRank)
			}
			cmd.Printf("%-24s %-28s %-12s %-6s %s\n",
				word.DisplayName(), strings.Join(word.Finnish, ", "), word.Category, word.Pos, rank)
		}
		cmd.Printf("%d sanaa\n", len(words))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "CEL-suodatin")
	listCmd.Flags().String("order-by", "", "järjestys, esim. 'frequencyRank' tai 'spanish desc'")
	listCmd.Flags().Int32("page", 1, "sivunumero")
	listCmd.Flags().Int32("page-size", 0, "sivun koko (0 = kaikki)")
}
