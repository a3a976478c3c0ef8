// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	redis := strings.TrimSpace(os.Getenv("REDIS_URL"))
	env := strings.TrimSpace(os.Getenv("ENVIRONMENT"))
	stURL := strings.TrimSpace(os.Getenv("SPEED_TEST_URL"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (write routes will 403).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (read routes will 401).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty — API will use in-memory stores; targets and results vanish on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if redis == "" {
		warn("REDIS_URL empty — broadcast events stay in-process only.")
	} else {
		ok("REDIS_URL present")
	}

	if env == "production" && stURL != "" {
		warn("SPEED_TEST_URL overrides the production download source for ALL tests.")
	}
	if env != "production" {
		ok("non-production environment; small dev download source will be used")
	}

	ok("preflight passed")
}
