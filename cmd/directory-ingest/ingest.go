package main

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
	maxLineBytes  = 1 << 20
)

// fileResult holds the valid listings parsed from one export file together
// with the bloom filter of their dedup keys.
type fileResult struct {
	businesses []directory.Business
	rejected   int
	filter     *bloom.BloomFilter
	// repeats holds keys the file's own filter reported more than once.
	repeats map[string]struct{}
	// candidate[i] is set when businesses[i] may share its key with another
	// listing. Only candidates are confirmed against the exact set.
	candidate []bool
}

// stats summarises a collect run.
type stats struct {
	read       int
	rejected   int
	duplicates int
}

// collect parses every file concurrently and merges the results in file
// order. A listing whose lower(name)+city was already seen is dropped, so the
// first file wins.
//
// Pass 1 parses each file and builds its bloom filter. Pass 2 flags the
// listings whose key is in another file's filter or repeats within its own
// file. The merge only keeps flagged keys in memory for exact comparison.
func collect(ctx context.Context, files []string) ([]directory.Business, stats, error) {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFile(gctx, i, f, results))
	}
	if err := g.Wait(); err != nil {
		return nil, stats{}, err
	}

	if err := markCandidates(ctx, results); err != nil {
		return nil, stats{}, err
	}

	var (
		st   stats
		out  []directory.Business
		seen = make(map[string]struct{})
	)
	for _, r := range results {
		st.read += len(r.businesses) + r.rejected
		st.rejected += r.rejected
		for i, b := range r.businesses {
			if r.candidate[i] {
				key := dedupKey(b)
				if _, ok := seen[key]; ok {
					st.duplicates++
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, b)
		}
	}
	slog.Info("dedup complete",
		slog.Int("candidates", len(seen)+st.duplicates),
		slog.Int("duplicates", st.duplicates),
	)
	return out, st, nil
}

func parseFile(ctx context.Context, idx int, path string, results []fileResult) func() error {
	return func() error {
		res := fileResult{
			filter:  bloom.NewWithEstimates(bloomCapacity, bloomFPR),
			repeats: make(map[string]struct{}),
		}
		var line int
		if err := streamGzFile(ctx, path, func(data []byte) {
			line++
			if len(bytes.TrimSpace(data)) == 0 {
				return
			}
			b, err := decodeRecord(data)
			if err == nil {
				err = b.Validate()
			}
			if err != nil {
				res.rejected++
				slog.Warn("skipping record",
					slog.String("file", path),
					slog.Int("line", line),
					slog.String("error", err.Error()),
				)
				return
			}
			if key := dedupKey(b); res.filter.TestAndAddString(key) {
				res.repeats[key] = struct{}{}
			}
			res.businesses = append(res.businesses, b)
			if len(res.businesses)%progressEvery == 0 {
				slog.Info("pass 1 progress", slog.Int("file", idx+1), slog.Int("records", len(res.businesses)))
			}
		}); err != nil {
			return errors.Wrapf(err, "parse file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Int("valid", len(res.businesses)),
			slog.Int("rejected", res.rejected),
		)
		results[idx] = res
		return nil
	}
}

// markCandidates checks every listing against the filters of the other files,
// concurrently per file. Filters are only read here.
func markCandidates(ctx context.Context, results []fileResult) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			r := &results[i]
			r.candidate = make([]bool, len(r.businesses))
			for n, b := range r.businesses {
				if n%progressEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				key := dedupKey(b)
				_, repeated := r.repeats[key]
				r.candidate[n] = repeated || inOtherFilter(results, i, key)
			}
			return nil
		})
	}
	return g.Wait()
}

func inOtherFilter(results []fileResult, self int, key string) bool {
	for j := range results {
		if j != self && results[j].filter.TestString(key) {
			return true
		}
	}
	return false
}

func dedupKey(b directory.Business) string {
	return strings.ToLower(strings.TrimSpace(b.Name)) + "\x00" + b.City
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// decodeRecord parses one NDJSON listing.
func decodeRecord(data []byte) (directory.Business, error) {
	var b directory.Business
	str := func(d *jx.Decoder, dst *string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		s, err := d.Str()
		*dst = strings.TrimSpace(s)
		return err
	}
	links := func(d *jx.Decoder, fields map[string]*string) error {
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			if dst, ok := fields[string(key)]; ok {
				return str(d, dst)
			}
			return d.Skip()
		})
	}

	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			return str(d, &b.ID)
		case "ownerId":
			return str(d, &b.OwnerID)
		case "name":
			return str(d, &b.Name)
		case "description":
			return str(d, &b.Description)
		case "category":
			return str(d, &b.Category)
		case "subcategory":
			return str(d, &b.Subcategory)
		case "location":
			return str(d, &b.Location)
		case "province":
			return str(d, &b.Province)
		case "city":
			return str(d, &b.City)
		case "department":
			return str(d, &b.Department)
		case "contact":
			return links(d, map[string]*string{
				"phone":    &b.Contact.Phone,
				"email":    &b.Contact.Email,
				"website":  &b.Contact.Website,
				"whatsapp": &b.Contact.WhatsApp,
			})
		case "social":
			return links(d, map[string]*string{
				"facebook":  &b.Social.Facebook,
				"instagram": &b.Social.Instagram,
				"twitter":   &b.Social.Twitter,
				"linkedin":  &b.Social.LinkedIn,
				"tiktok":    &b.Social.TikTok,
			})
		case "images":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				b.Images = append(b.Images, s)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return directory.Business{}, errors.Wrap(err, "decode record")
	}
	return b, nil
}
