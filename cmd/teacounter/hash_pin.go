package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"TeaCounter/internal/auth"
)

var hashPINCmd = &cobra.Command{
	Use:   "hash-pin [pin]",
	Short: "Print the bcrypt hash to use as manager.pin_hash",
	Long: `Print the bcrypt hash to use as manager.pin_hash.

The PIN is read from the first line of stdin when not given as an argument,
which keeps it out of the shell history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPIN,
}

func runHashPIN(cmd *cobra.Command, args []string) error {
	var pin string
	if len(args) == 1 {
		pin = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no pin given")
		}
		pin = strings.TrimSpace(line)
	}

	hash, err := auth.HashPIN(pin)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
