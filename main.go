package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"book-management/internal/config"
	"book-management/internal/logging"
	"book-management/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword reads a secret from the terminal without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimRight(string(bytePassword), "\r\n"), nil
}

// cli holds what every command needs once flags and config are resolved.
type cli struct {
	envFile string
	dbPath  string
	level   string

	cfg *config.Config
	log logging.Logger
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = c.dbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = c.level
	}

	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logging.New(cmd.ErrOrStderr(), lvl)
	return nil
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:               "book-management",
		Short:             "Terminal book catalog with role-based menus",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "optional dotenv file")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "path to the SQLite database (default "+config.DefaultDBPath+")")
	root.PersistentFlags().StringVar(&c.level, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newImportCmd(c), newDumpCmd(c))
	return root
}

func newImportCmd(c *cli) *cobra.Command {
	var users, books string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load users and books from the seed files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("users") {
				c.cfg.UsersFile = users
			}
			if cmd.Flags().Changed("books") {
				c.cfg.BooksFile = books
			}

			ctx := cmd.Context()
			mgr, err := library.NewLibraryManager(ctx, c.cfg.DBPath, c.log)
			if err != nil {
				return err
			}
			defer mgr.Close()
			return mgr.ImportSeedFiles(ctx, c.cfg.UsersFile, c.cfg.BooksFile, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&users, "users", "", "users seed file (default "+config.DefaultUsersFile+")")
	cmd.Flags().StringVar(&books, "books", "", "books seed file (default "+config.DefaultBooksFile+")")
	return cmd
}

func newDumpCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every table in the database without changing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return library.DumpFile(cmd.Context(), c.cfg.DBPath, cmd.OutOrStdout(), c.log)
		},
	}
}

func (c *cli) runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	mgr, err := library.NewLibraryManager(ctx, c.cfg.DBPath, c.log)
	if err != nil {
		return err
	}
	defer mgr.Close()

	m := newMenu(bufio.NewScanner(in), out, mgr.NewSession(), mgr.Ping)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		m.readSecret = readPassword
	}

	fmt.Fprintln(out, "Welcome to the Book Management System!")
	return m.run(ctx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
