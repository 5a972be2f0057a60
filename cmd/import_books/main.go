package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"book-management/internal/config"
	"book-management/internal/logging"
	"book-management/library"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, lvl)
	ctx := context.Background()

	manager, err := library.NewLibraryManager(ctx, cfg.DBPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	fmt.Printf("Importing seed data into %s...\n", cfg.DBPath)
	if err := manager.ImportSeedFiles(ctx, cfg.UsersFile, cfg.BooksFile, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		manager.Close()
		os.Exit(1)
	}

	// Display summary of the catalog
	db := manager.Database()
	total, err := db.CountBooks(ctx)
	if err != nil {
		fmt.Printf("Error counting books: %v\n", err)
		return
	}
	if total == 0 {
		fmt.Println("\nCatalog is empty.")
		return
	}
	books, err := db.SearchBooks(ctx, library.BookFilter{})
	if err != nil {
		fmt.Printf("Error retrieving books: %v\n", err)
		return
	}
	fmt.Printf("\nCatalog (%d books):\n", total)
	fmt.Printf("%-3s %-40s %-25s %-6s %s\n", "ID", "Title", "Author", "Year", "ISBN")
	fmt.Println(strings.Repeat("-", 95))
	for _, book := range books {
		fmt.Printf("%-3d %-40s %-25s %-6d %s\n", book.ID, truncateString(book.Title, 40), truncateString(book.Author, 25), book.Year, book.ISBN)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
