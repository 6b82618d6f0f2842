// Command hash-password prints bcrypt hashes for seeding users directly into
// the database. Passwords are read from the arguments, or one per line from
// stdin when none are given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/taskly-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if err := run(os.Stdout, os.Stdin, flag.Args(), *cost); err != nil {
		fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, in io.Reader, passwords []string, cost int) error {
	if len(passwords) == 0 {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			passwords = append(passwords, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read passwords: %w", err)
		}
	}

	for _, password := range passwords {
		if err := domain.ValidatePassword(password); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if _, err := fmt.Fprintln(out, string(hash)); err != nil {
			return err
		}
	}
	return nil
}
