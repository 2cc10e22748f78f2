package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/lingualoop/lingualoop/internal/config"
	"github.com/lingualoop/lingualoop/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed CEFR bands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		st, err := store.Open(cfg.Database.StoreConfig())
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Println("schema migrated, default CEFR bands seeded")

		if demo, _ := cmd.Flags().GetBool("demo"); demo {
			if err := seedDemoContent(cmd.Context(), st); err != nil {
				return fmt.Errorf("seed demo content: %w", err)
			}
			fmt.Println("demo scenarios and exercises seeded")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("demo", false, "Seed a few demo scenarios and exercises for local development")
}

// seedDemoContent inserts a handful of scenarios and exercises so a
// fresh local database has something to practice against.
func seedDemoContent(ctx context.Context, st *store.Store) error {
	correct := 1
	limit := 45
	exercises := []*store.Exercise{
		{
			LanguageID:       "es",
			SkillID:          "grammar",
			Type:             store.ExerciseTypeChoice,
			Prompt:           "Yo ___ al mercado todos los días.",
			Options:          datatypes.JSON(`["va","voy","vas"]`),
			CorrectIndex:     &correct,
			DifficultyRating: 1000,
			TimeLimitSeconds: &limit,
			Active:           true,
		},
		{
			LanguageID:       "es",
			SkillID:          "writing",
			Type:             store.ExerciseTypeFree,
			Prompt:           "Describe tu ciudad en tres frases.",
			DifficultyRating: 1100,
			Active:           true,
		},
	}
	for _, ex := range exercises {
		if err := st.Exercises().Create(ctx, nil, ex); err != nil {
			return err
		}
	}

	scenarios := []*store.Scenario{
		{
			LanguageID:     "es",
			Title:          "En la panadería",
			Topic:          "ordering food",
			Description:    "You are buying bread at a small neighborhood bakery.",
			TargetCEFR:     "A2",
			OpeningOptions: datatypes.JSON(`["Buenos días, quiero un pan.","¿Cuánto cuesta?"]`),
			Hints:          datatypes.JSON(`["el pan","la panadería","cuesta"]`),
		},
		{
			LanguageID:     "es",
			Title:          "Entrevista de trabajo",
			Topic:          "job interview",
			Description:    "You are interviewing for a position at a tech company.",
			TargetCEFR:     "B2",
			OpeningOptions: datatypes.JSON(`["Buenos días, encantado de conocerle.","Gracias por recibirme."]`),
			Hints:          datatypes.JSON(`["la experiencia","el puesto","las fortalezas"]`),
		},
	}
	for _, sc := range scenarios {
		if err := st.Scenarios().Create(ctx, nil, sc); err != nil {
			return err
		}
	}
	return nil
}
