package cli

import (
	"errors"
	"fmt"

	"github.com/existflow/taskhub/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo users, projects, tags and tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, st, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer database.Close()

		fmt.Println("🔄 Seeding demo data...")
		res, err := seed.Run(cmd.Context(), st, seed.Options{})
		if errors.Is(err, seed.ErrAlreadySeeded) {
			fmt.Println("Demo data already present, nothing to do.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("✅ Created %d users, %d projects, %d tags, %d tasks\n", res.Users, res.Projects, res.Tags, res.Tasks)
		fmt.Printf("🔑 Demo account: %s / %s\n", seed.DemoEmail, seed.DemoPassword)
		return nil
	},
}
