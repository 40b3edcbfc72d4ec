package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskhub/internal/model"
	"github.com/existflow/taskhub/internal/store"
	"github.com/spf13/cobra"
)

var (
	colorPrimary  = lipgloss.Color("#4ECDC4")
	colorTodo     = lipgloss.Color("#FFE66D")
	colorProgress = lipgloss.Color("#FFB347")
	colorDone     = lipgloss.Color("#95E1A3")
	colorMuted    = lipgloss.Color("#888888")
	colorBorder   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Width(14).
			Align(lipgloss.Center).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

var dashboardEmail string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print a user's task counts per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dashboardEmail == "" {
			return errors.New("--email is required")
		}

		database, st, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := st.FindUserByEmail(cmd.Context(), dashboardEmail)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no account with email %s", dashboardEmail)
		}
		if err != nil {
			return err
		}

		sum, err := st.Summarize(cmd.Context(), user.ID)
		if err != nil {
			return err
		}

		fmt.Println(renderSummary(user.Name, sum))
		return nil
	},
}

func renderSummary(name string, sum model.Summary) string {
	card := func(label string, n int, color lipgloss.Color) string {
		value := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%d", n))
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, value, labelStyle.Render(label)))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		card("total", sum.Total, colorPrimary),
		card("todo", sum.Todo, colorTodo),
		card("in progress", sum.InProgress, colorProgress),
		card("done", sum.Done, colorDone),
	)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("📊 "+name), row)
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardEmail, "email", "", "Account email")
}
