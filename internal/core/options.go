package core

import (
	"github.com/kotoba-study/kotoba/internal/config"
	"github.com/kotoba-study/kotoba/internal/db"
)

// OptionsFromConfig derives service options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		QuizQuestions: cfg.Quiz.Questions,
		QuizOptions:   cfg.Quiz.Options,
		Terminators:   cfg.Quiz.TerminatorRunes(),
		LemmaBlanking: cfg.Quiz.LemmaBlanking,
		MaxSentences:  cfg.AI.MaxSentences,
		AutoGenerate:  cfg.AI.AutoGenerate,
		Defaults: db.Settings{
			DailyGoal: cfg.Study.DailyGoal,
			Timezone:  cfg.Study.Timezone,
		},
	}
}
