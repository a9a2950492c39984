// Command directory-ingest loads gzip-compressed NDJSON exports of business
// listings into the directory, deduplicating on lower(name) and city.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/storage/postgres"
)

const defaultOwner = "directory-import"

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
		owner       string
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing the export files")
	flag.StringVar(&pattern, "pattern", "*.ndjson.gz", "glob of export files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&owner, "owner", defaultOwner, "owner id for records without one")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and deduplicate without writing")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, pattern, databaseURL, owner, dryRun); err != nil {
		slog.Error("directory ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("directory ingest completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL, owner string, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "match export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s in %s", pattern, dataDir)
	}
	sort.Strings(files)

	slog.Info("parsing export files", slog.Int("files", len(files)))

	businesses, st, err := collect(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect listings")
	}

	slog.Info("listings collected",
		slog.Int("read", st.read),
		slog.Int("rejected", st.rejected),
		slog.Int("duplicates", st.duplicates),
		slog.Int("unique", len(businesses)),
	)

	if dryRun || len(businesses) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeBusinesses(ctx, postgres.NewBusinessRepository(pool), businesses, owner)
}

// writeBusinesses upserts every listing. Existing rows keep their id and
// owner.
func writeBusinesses(ctx context.Context, repo directory.Repository, businesses []directory.Business, owner string) error {
	slog.Info("writing listings to database", slog.Int("count", len(businesses)))

	var inserted int
	now := time.Now().UTC()
	for i := range businesses {
		b := &businesses[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.OwnerID == "" {
			b.OwnerID = owner
		}
		b.CreatedAt, b.UpdatedAt = now, now

		created, err := repo.Upsert(ctx, b)
		if err != nil {
			return errors.Wrapf(err, "upsert business %q", b.Name)
		}
		if created {
			inserted++
		}

		if (i+1)%1000 == 0 || i+1 == len(businesses) {
			slog.Info("write progress",
				slog.Int("written", i+1),
				slog.Int("total", len(businesses)),
				slog.Int("inserted", inserted),
			)
		}
	}

	return nil
}
