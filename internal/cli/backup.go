package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/backup"
	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dustin/go-humanize"
)

// newS3Sink is a test seam for backup.NewS3Sink.
var newS3Sink = func(ctx context.Context, cfg backup.S3Config) (backup.Sink, error) {
	s, err := backup.NewS3Sink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// sink returns the backup destination: the bucket when remote is set,
// otherwise the local backup directory.
func (a *App) sink(ctx context.Context, remote bool) (backup.Sink, error) {
	if !remote {
		fs, err := backup.NewFileSink(a.config.BackupDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	if !a.config.S3Enabled() {
		return nil, fmt.Errorf("object storage is not configured (set FAMLINK_S3_BUCKET)")
	}
	return newS3Sink(ctx, backup.S3Config{
		Bucket:       a.config.S3Bucket,
		Region:       a.config.S3Region,
		BaseEndpoint: a.config.S3BaseEndpoint,
		AccessKey:    a.config.S3AccessKey,
		SecretKey:    a.config.S3SecretKey,
	})
}

// Backup exports every record. An optional passphrase encrypts the file.
func (a *App) Backup(ctx context.Context, args []string) error {
	args, remote := hasFlag(args, "s3")
	sink, err := a.sink(ctx, remote)
	if err != nil {
		return err
	}
	name := argOrEmpty(args, 0)
	if name == "" {
		name = backup.FileName(a.store.Now())
	}

	pass, err := GetSecret(a.out, "- Passphrase (empty for an unencrypted backup)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	if err := a.backups.Save(ctx, sink, name, pass); err != nil {
		return err
	}
	printlnFn("Backup written:", name)
	return nil
}

// Restore replaces every record with the contents of a backup. The
// passphrase is asked for only when the file is encrypted.
func (a *App) Restore(ctx context.Context, args []string) error {
	args, remote := hasFlag(args, "s3")
	name := argOrEmpty(args, 0)
	if name == "" {
		return errUsage("restore <name> [s3]")
	}
	sink, err := a.sink(ctx, remote)
	if err != nil {
		return err
	}

	data, err := sink.Get(ctx, name)
	if err != nil {
		return err
	}

	var pass []byte
	if backup.IsEncrypted(data) {
		if pass, err = GetSecret(a.out, "- Backup passphrase"); err != nil {
			return err
		}
		defer common.WipeByteArray(pass)
	}

	snap, err := a.backups.Decode(data, pass)
	if err != nil {
		return err
	}

	answer, err := GetSimpleText(a.reader, fmt.Sprintf("- Replace all data with the backup from %s? (yes/no)", snap.ExportDate), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") && !strings.EqualFold(answer, "y") {
		printlnFn("Restore cancelled.")
		return nil
	}

	if err := a.backups.Import(ctx, snap); err != nil {
		return err
	}

	// the key may have changed with the settings
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}
	key := ""
	if s.HasAPIKey() {
		key = *s.APIKey
	}
	a.translator.SetAPIKey(key)

	printlnFn(fmt.Sprintf("Restored %d profiles and %d categories.", len(snap.Profiles), len(snap.Categories)))
	return nil
}

func (a *App) Backups(ctx context.Context, args []string) error {
	_, remote := hasFlag(args, "s3")
	sink, err := a.sink(ctx, remote)
	if err != nil {
		return err
	}
	names, err := sink.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printlnFn("No backups.")
		return nil
	}
	for _, n := range names {
		printlnFn(n)
	}
	return nil
}

func (a *App) ClearCache(ctx context.Context, _ []string) error {
	if err := a.cache.Clear(ctx); err != nil {
		return err
	}
	printlnFn("Translation cache cleared.")
	return nil
}

// Stats prints record counts and the translation counters of this session.
func (a *App) Stats(ctx context.Context, _ []string) error {
	for _, t := range models.Tables {
		n, err := a.store.Count(ctx, t)
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("%-14s %s", t, humanize.Comma(int64(n))))
	}

	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			printlnFn(fmt.Sprintf("%s{%s} %s", mf.GetName(), strings.Join(labels, ","),
				humanize.Comma(int64(m.GetCounter().GetValue()))))
		}
	}
	return nil
}
