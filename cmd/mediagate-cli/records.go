package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mediagate"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List or create users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user",
	Long: `Register a user. The password is hashed by the server.

Examples:
  mediagate-cli users create --email ada@example.com --name Ada --password 'correct horse'`,
	Args: cobra.NoArgs,
	RunE: runUsersCreate,
}

var todosCmd = &cobra.Command{
	Use:   "todos",
	Short: "List or create todos",
}

var todosListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List the todos of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodosList,
}

var todosCreateCmd = &cobra.Command{
	Use:   "create <user-id> <title>",
	Short: "Add a todo for a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodosCreate,
}

var newUser mediagate.NewUser

func init() {
	usersCreateCmd.Flags().StringVar(&newUser.Email, "email", "", "email address")
	usersCreateCmd.Flags().StringVar(&newUser.Name, "name", "", "display name")
	usersCreateCmd.Flags().StringVar(&newUser.Password, "password", "", "password (min 8 characters)")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	todosCmd.AddCommand(todosListCmd)
	todosCmd.AddCommand(todosCreateCmd)
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	users, err := client.ListUsers(cmd.Context())
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatUsers(os.Stdout, users)
}

func runUsersCreate(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	user, err := client.CreateUser(cmd.Context(), newUser)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatUsers(os.Stdout, []mediagate.User{user})
}

func runTodosList(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	todos, err := client.ListTodos(cmd.Context(), userID)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatTodos(os.Stdout, todos)
}

func runTodosCreate(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	todo, err := client.CreateTodo(cmd.Context(), mediagate.NewTodo{Title: args[1], UserID: userID})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatTodos(os.Stdout, []mediagate.Todo{todo})
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
