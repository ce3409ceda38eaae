package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"chapterhub.org/internal/migrate"
	"chapterhub.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn        = flag.String("dsn", os.Getenv("CHAPTERHUB_PG_DSN"), "PostgreSQL DSN")
		migrations = flag.String("migrations", "", "Directory with SQL migrations (defaults to the embedded set)")
		seeds      = flag.String("seeds", "", "Directory with SQL seeds (defaults to the embedded set)")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall deadline")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or CHAPTERHUB_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), dirOr(*migrations, pg.Migrations()), dirOr(*seeds, pg.Seeds()))

	switch cmd := flag.Arg(0); cmd {
	case "up":
		ran, err := mgr.Up(ctx)
		report("applied", ran)
		exitOn(cmd, err)
	case "seed":
		ran, err := mgr.Seed(ctx)
		report("seeded", ran)
		exitOn(cmd, err)
	case "down":
		name, err := mgr.Down(ctx)
		exitOn(cmd, err)
		fmt.Println("reverted", name)
	case "status":
		history, err := mgr.Status(ctx)
		exitOn(cmd, err)
		for _, item := range history {
			fmt.Println(item)
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func dirOr(dir string, embedded fs.FS) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}

func report(verb string, names []string) {
	if len(names) == 0 {
		fmt.Println("nothing to do")
		return
	}
	for _, name := range names {
		fmt.Println(verb, name)
	}
}

func exitOn(cmd string, err error) {
	if err != nil {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
}
