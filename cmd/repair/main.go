package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/quillforum/quill-backend/internal/service"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quillforum/quill-backend/internal/config"
)

// repair is the offline maintenance tool for the revisions table. It fixes
// three kinds of damage left behind by interrupted create flows and
// historical bugs:
//
//   - revisions whose document_id was never back-filled (the document insert
//     or the back-fill failed after the revision was written)
//   - documents whose denormalized content snapshot disagrees with their
//     latest revision
//   - documents with denormalized content but no revision chain at all,
//     which get a synthesized initial revision
//
// All passes are idempotent: re-running on a healthy table changes nothing.
func main() {
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	target := flag.String("target", "all", "repair target: all, document-ids, snapshots, missing-revisions")
	dryRun := flag.Bool("dry-run", false, "report what would be repaired without writing")
	buckets := flag.Int("buckets", 20, "number of id-range buckets per pass")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	switch *target {
	case "all":
		repairDocumentIDs(db, *buckets, *dryRun)
		repairSnapshots(db, *dryRun)
		repairMissingRevisions(db, *dryRun)
	case "document-ids":
		repairDocumentIDs(db, *buckets, *dryRun)
	case "snapshots":
		repairSnapshots(db, *dryRun)
	case "missing-revisions":
		repairMissingRevisions(db, *dryRun)
	default:
		log.Fatalf("Unknown target: %s", *target)
	}
	log.Printf("[repair] Done in %s", time.Since(start))
}

// kindField maps each document kind to its revision-tracked field and the
// columns holding the latest-revision pointer and denormalized snapshot.
type kindField struct {
	kind      domain.DocumentKind
	table     string
	field     string
	latestCol string
}

var kindFields = []kindField{
	{domain.KindPosts, "posts", domain.FieldContents, "contents_latest"},
	{domain.KindComments, "comments", domain.FieldContents, "contents_latest"},
	{domain.KindLenses, "lenses", domain.FieldContents, "contents_latest"},
	{domain.KindTags, "tags", domain.FieldDescription, "description_latest"},
}

// bucketRanges samples n revision ids and returns sorted boundaries splitting
// the id space into roughly even ranges. Walking ranges keeps each UPDATE's
// scan bounded regardless of table size.
func bucketRanges(db *gorm.DB, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	var samples []string
	err := db.Table("revisions").
		Select("id").
		Where("document_id = ''").
		Order("RAND()").
		Limit(n).
		Pluck("id", &samples).Error
	if err != nil {
		return nil, err
	}
	sort.Strings(samples)
	return samples, nil
}

// repairDocumentIDs back-fills document_id on revisions orphaned by a crash
// between revision insert and document insert. The owning document is the
// one whose latest-revision pointer references the revision.
func repairDocumentIDs(db *gorm.DB, buckets int, dryRun bool) {
	var orphans int64
	if err := db.Table("revisions").Where("document_id = ''").Count(&orphans).Error; err != nil {
		log.Fatalf("[repair] Failed to count orphaned revisions: %v", err)
	}
	log.Printf("[repair] Revisions without document_id: %d", orphans)
	if orphans == 0 || dryRun {
		if dryRun && orphans > 0 {
			log.Printf("[dry-run] Would back-fill %d revisions", orphans)
		}
		return
	}

	boundaries, err := bucketRanges(db, buckets)
	if err != nil {
		log.Fatalf("[repair] Failed to sample id ranges: %v", err)
	}

	total := int64(0)
	for _, kf := range kindFields {
		repaired := int64(0)
		// One range per boundary pair, plus the open ranges at both ends.
		lo := ""
		for i := 0; i <= len(boundaries); i++ {
			hi := ""
			if i < len(boundaries) {
				hi = boundaries[i]
			}

			q := db.Exec(backfillSQL(kf, lo, hi), backfillArgs(kf, lo, hi)...)
			if q.Error != nil {
				log.Fatalf("[repair] Back-fill failed for %s: %v", kf.kind, q.Error)
			}
			repaired += q.RowsAffected
			lo = hi
		}
		log.Printf("[repair] %s: back-filled %d revisions", kf.kind, repaired)
		total += repaired
	}
	log.Printf("[repair] Back-filled %d revisions total", total)
}

func backfillSQL(kf kindField, lo, hi string) string {
	sql := fmt.Sprintf(
		`UPDATE revisions r
		 JOIN %s d ON d.%s = r.id
		 SET r.document_id = d.id
		 WHERE r.document_id = '' AND r.collection_name = ? AND r.field_name = ?`,
		kf.table, kf.latestCol)
	if lo != "" {
		sql += " AND r.id >= ?"
	}
	if hi != "" {
		sql += " AND r.id < ?"
	}
	return sql
}

func backfillArgs(kf kindField, lo, hi string) []interface{} {
	args := []interface{}{string(kf.kind), kf.field}
	if lo != "" {
		args = append(args, lo)
	}
	if hi != "" {
		args = append(args, hi)
	}
	return args
}

// repairSnapshots rewrites denormalized snapshot columns that disagree with
// the revision their latest pointer references. Staleness is judged on the
// version column alone: the snapshot html legitimately diverges from the
// immutable revision after image rehosting, and must not be clawed back.
func repairSnapshots(db *gorm.DB, dryRun bool) {
	for _, kf := range kindFields {
		var stale int64
		if err := db.Raw(snapshotCountSQL(kf)).Scan(&stale).Error; err != nil {
			log.Fatalf("[repair] Failed to count stale snapshots for %s: %v", kf.kind, err)
		}
		log.Printf("[repair] %s: stale snapshots: %d", kf.kind, stale)
		if stale == 0 {
			continue
		}
		if dryRun {
			log.Printf("[dry-run] Would rewrite %d %s snapshots", stale, kf.kind)
			continue
		}

		q := db.Exec(snapshotUpdateSQL(kf))
		if q.Error != nil {
			log.Fatalf("[repair] Snapshot rewrite failed for %s: %v", kf.kind, q.Error)
		}
		log.Printf("[repair] %s: rewrote %d snapshots", kf.kind, q.RowsAffected)
	}
}

// snapshotCountSQL counts documents whose snapshot version disagrees with
// the revision the latest pointer references. The html column does not
// participate: image rehosting rewrites the snapshot html while the
// revision stays immutable.
func snapshotCountSQL(kf kindField) string {
	return fmt.Sprintf(
		`SELECT COUNT(*) FROM %s d
		 JOIN revisions r ON r.id = d.%s
		 WHERE d.%s_version <> r.version`,
		kf.table, kf.latestCol, kf.field)
}

func snapshotUpdateSQL(kf kindField) string {
	prefix := kf.field
	return fmt.Sprintf(
		`UPDATE %s d
		 JOIN revisions r ON r.id = d.%s
		 SET d.%s_html = r.html,
		     d.%s_version = r.version,
		     d.%s_user_id = r.user_id,
		     d.%s_edited_at = r.edited_at,
		     d.%s_word_count = r.word_count
		 WHERE d.%s_version <> r.version`,
		kf.table, kf.latestCol, prefix, prefix, prefix, prefix, prefix, prefix)
}

// orphanedSnapshot is a document whose latest-revision pointer is gone but
// whose denormalized content survived.
type orphanedSnapshot struct {
	ID        string
	HTML      string
	Version   string
	UserID    string
	EditedAt  time.Time
	WordCount int
}

// chainlessSelectSQL finds documents whose latest pointer is missing while
// denormalized content survives.
func chainlessSelectSQL(kf kindField) string {
	prefix := kf.field
	return fmt.Sprintf(
		`SELECT id, %s_html AS html, %s_version AS version, %s_user_id AS user_id,
		        %s_edited_at AS edited_at, %s_word_count AS word_count
		 FROM %s
		 WHERE (%s IS NULL OR %s = '') AND %s_html <> ''`,
		prefix, prefix, prefix, prefix, prefix, kf.table, kf.latestCol, kf.latestCol, prefix)
}

// repairMissingRevisions synthesizes a best-effort initial revision for
// documents whose latest pointer is empty but whose denormalized content
// exists, then restores the pointer. Documents that still own a chain are
// skipped so re-runs never fork.
func repairMissingRevisions(db *gorm.DB, dryRun bool) {
	ctx := context.Background()
	revisions := repository.NewRevisionRepository(db)

	for _, kf := range kindFields {
		var rows []orphanedSnapshot
		if err := db.Raw(chainlessSelectSQL(kf)).Scan(&rows).Error; err != nil {
			log.Fatalf("[repair] Failed to find chainless %s: %v", kf.kind, err)
		}
		log.Printf("[repair] %s: documents without a revision chain: %d", kf.kind, len(rows))
		if len(rows) == 0 {
			continue
		}
		if dryRun {
			log.Printf("[dry-run] Would synthesize up to %d initial revisions for %s", len(rows), kf.kind)
			continue
		}

		synthesized := 0
		for _, row := range rows {
			// The chain may still exist even though the pointer is lost.
			count, err := revisions.CountForDocument(ctx, row.ID, kf.field)
			if err != nil {
				log.Fatalf("[repair] Failed to count revisions for %s %s: %v", kf.kind, row.ID, err)
			}
			if count > 0 {
				continue
			}

			version := row.Version
			if version == "" {
				version = domain.InitialVersion(false)
			}
			editedAt := row.EditedAt
			if editedAt.IsZero() {
				editedAt = time.Now()
			}
			rev := &domain.Revision{
				ID:               uuid.NewString(),
				DocumentID:       row.ID,
				CollectionName:   kf.kind,
				FieldName:        kf.field,
				Version:          version,
				Draft:            domain.VersionIsDraft(version, kf.kind),
				UpdateType:       domain.UpdateTypeInitial,
				OriginalContents: domain.ContentPayload{Type: service.ContentTypeHTML, Data: row.HTML},
				HTML:             row.HTML,
				WordCount:        row.WordCount,
				ChangeMetrics:    service.ComputeChangeMetrics("", row.HTML),
				UserID:           row.UserID,
				EditedAt:         editedAt,
			}
			if err := revisions.Create(ctx, rev); err != nil {
				log.Fatalf("[repair] Failed to synthesize revision for %s %s: %v", kf.kind, row.ID, err)
			}

			pointerSQL := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", kf.table, kf.latestCol)
			if err := db.Exec(pointerSQL, rev.ID, row.ID).Error; err != nil {
				log.Fatalf("[repair] Failed to restore latest pointer for %s %s: %v", kf.kind, row.ID, err)
			}
			synthesized++
		}
		log.Printf("[repair] %s: synthesized %d initial revisions", kf.kind, synthesized)
	}
}
