package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sleepfetch/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the sleep cloud token",
	Long: `Manage the stored sleep cloud user token.

The token is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The SLEEP_CLOUD_TOKEN environment variable (read-only fallback)

Never share your token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the sleep cloud token securely",
	Long: `Store the sleep cloud user token in the system keychain or an
encrypted file.

To get the token, open the Sleep as Android cloud backup settings and copy
the value shown under your account.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is stored",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if manager.Exists() {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("A token is already stored. Replace it? (y/N): ")
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Sleep cloud token (hidden as you type): ")
	token, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	if err := manager.Store(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Printf("Token stored: %s\n", auth.MaskToken(token))
	fmt.Println("\nStart downloading with:")
	fmt.Println("  sleepfetch fetch")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	fmt.Println("Token removed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	token, err := manager.Retrieve()
	if err != nil {
		fmt.Println("No token stored. Run 'sleepfetch auth login' to add one.")
		return nil
	}

	fmt.Printf("Token stored: %s\n", auth.MaskToken(token))
	return nil
}

// readPassword reads a token from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Not a terminal, fall back to a plain line read
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
