package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/vocabulary"
)

// poolAll is the history key used when a round spans the whole vocabulary
// instead of a single category.
const poolAll = "all"

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// resolvePool returns the words to practice and the category key their
// rounds are tracked under. An empty category means the whole vocabulary.
func resolvePool(provider *vocabulary.Provider, category string) ([]entity.Word, string, error) {
	name := strings.ToLower(strings.TrimSpace(category))
	if name == "" || name == poolAll {
		return provider.All(), poolAll, nil
	}
	words := provider.ByCategory(name)
	if len(words) == 0 {
		return nil, "", fmt.Errorf("%w: %s", entity.ErrUnknownCategory, name)
	}
	return words, name, nil
}

func directionFromConfig(key string) entity.Direction {
	return entity.NormalizeDirection(entity.ParseDirection(viper.GetString(key)))
}

func modeFromConfig(key string) entity.GameMode {
	return entity.NormalizeMode(entity.ParseMode(viper.GetString(key)))
}

// directionOrConfig prefers an explicitly set flag value over the
// configured default.
func directionOrConfig(flagValue, key string) entity.Direction {
	if strings.TrimSpace(flagValue) != "" {
		return entity.NormalizeDirection(entity.ParseDirection(flagValue))
	}
	return directionFromConfig(key)
}

func modeOrConfig(flagValue, key string) entity.GameMode {
	if strings.TrimSpace(flagValue) != "" {
		return entity.NormalizeMode(entity.ParseMode(flagValue))
	}
	return modeFromConfig(key)
}

// confirm asks the user to approve a destructive action. Anything except an
// explicit yes counts as no.
func confirm(cmd *cobra.Command, question string) bool {
	cmd.Printf("%s [k/E]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "k", "kyllä", "kylla":
		return true
	default:
		return false
	}
}
