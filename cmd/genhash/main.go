// cmd/genhash prints a bcrypt digest for a password, for manual account fixes.
// Usage: go run ./cmd/genhash <password> [cost]
package main

import (
	"fmt"
	"os"
	"strconv"

	"kioskpos/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password> [cost]")
		os.Exit(2)
	}
	cost := 12
	if len(os.Args) > 2 {
		c, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "cost must be an integer")
			os.Exit(2)
		}
		cost = c
	}
	h, err := auth.NewPasswordHasher(cost).Hash(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
