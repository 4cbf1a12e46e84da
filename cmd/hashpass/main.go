package main

import (
	"fmt"
	"os"

	"github.com/mitomaniaco/escola-tia-sol/internal/auth"
	"github.com/mitomaniaco/escola-tia-sol/internal/util"
)

// Gera hash argon2id para semear contas manualmente.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(1)
	}

	if err := util.ValidatePassword(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
