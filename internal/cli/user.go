package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/server"
	"github.com/existflow/taskhub/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var (
	userName  string
	userEmail string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)
		if userName == "" {
			fmt.Print("Name: ")
			line, _ := reader.ReadString('\n')
			userName = strings.TrimSpace(line)
		}
		if userEmail == "" {
			fmt.Print("Email: ")
			line, _ := reader.ReadString('\n')
			userEmail = strings.TrimSpace(line)
		}
		if userName == "" || userEmail == "" {
			return errors.New("name and email are required")
		}

		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if string(passwordBytes) != string(confirmBytes) {
			return errors.New("passwords do not match")
		}
		if len([]rune(string(passwordBytes))) < server.MinPasswordLength {
			return fmt.Errorf("password must be at least %d characters", server.MinPasswordLength)
		}

		hash, err := bcrypt.GenerateFromPassword(passwordBytes, bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		database, st, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := st.CreateUser(cmd.Context(), userName, userEmail, string(hash))
		if errors.Is(err, store.ErrDuplicateEmail) {
			return fmt.Errorf("an account with email %s already exists", userEmail)
		}
		if err != nil {
			return err
		}

		logger.Info("User created from CLI", logger.F("user_id", user.ID))
		fmt.Printf("✅ Created user #%d (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCmd.AddCommand(userCreateCmd)
}
