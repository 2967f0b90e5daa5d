// adduser creates local users for cookie-auth deployments and prints the
// access token they sign in with. The token is derived from SESSION_SECRET,
// so the server must run with the same secret.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rmacedo/quill/internal/auth"
	"github.com/rmacedo/quill/internal/config"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/model"
)

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("SESSION_SECRET")
	if len(secret) < auth.MinCookieSecretLength {
		fmt.Fprintf(os.Stderr, "SESSION_SECRET must be at least %d bytes\n", auth.MinCookieSecretLength)
		os.Exit(1)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	database := db.NewSQLite(config.AppConfig.Database.Path)
	if err := database.InitDB(); err != nil {
		fmt.Fprintln(os.Stderr, "Error opening database:", err)
		os.Exit(1)
	}
	defer database.Close()

	// Define Lipgloss styles
	promptStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	scanner := bufio.NewScanner(os.Stdin)
	read := func(prompt string) (string, bool) {
		fmt.Print(promptStyle.Render(prompt))
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	fmt.Println("Create users one by one. Leave the user id empty to exit.")

	for {
		id, ok := read("User id: ")
		if !ok || id == "" {
			break
		}
		name, ok := read("Name: ")
		if !ok {
			break
		}
		email, ok := read("Email: ")
		if !ok {
			break
		}

		_, err := database.Exec(context.Background(),
			`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
			id, name, email)
		if err != nil {
			fmt.Println(errorStyle.Render("Error creating user: " + err.Error()))
			continue
		}

		fmt.Println(outputStyle.Render("User created: " + id))
		fmt.Println(outputStyle.Render("Access token: " + auth.Token(secret, model.UserID(id))))
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading input:", err)
	}
}
