// Package backup uploads the transcript tree to object storage on a cron
// schedule. It is a pure consumer of the flat log files; bot state is never
// read or mutated.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/robfig/cron/v3"

	"github.com/bowerhall/carydes/internal/alerts"
	"github.com/bowerhall/carydes/internal/logger"
)

const (
	DefaultBucket   = "carydes-chatlogs"
	DefaultSchedule = "0 3 * * *"
)

// scheduleParser accepts standard 5-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Schedule  string
	Dir       string
}

type Runner struct {
	mc       *minio.Client
	bucket   string
	schedule cron.Schedule
	dir      string
	alerter  *alerts.Alerter
	now      func() time.Time
}

func New(cfg Config, alerter *alerts.Alerter) (*Runner, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}

	sched, err := scheduleParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.Schedule, err)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Runner{
		mc:       mc,
		bucket:   cfg.Bucket,
		schedule: sched,
		dir:      cfg.Dir,
		alerter:  alerter,
		now:      time.Now,
	}, nil
}

// Init creates the bucket if it does not exist.
func (r *Runner) Init(ctx context.Context) error {
	exists, err := r.mc.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", r.bucket, err)
	}

	if !exists {
		if err := r.mc.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", r.bucket, err)
		}
		logger.Info("bucket created", "bucket", r.bucket)
	}

	return nil
}

// Run fires a backup at every schedule tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	for {
		next := r.schedule.Next(r.now())
		logger.Debug("next backup scheduled", "at", next)

		timer := time.NewTimer(next.Sub(r.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("backup runner stopping")
			return
		case <-timer.C:
		}

		if err := r.Backup(ctx); err != nil {
			logger.Error("backup failed", "error", err)
			r.alerter.Warn("backup", "transcript backup failing", err)
		}
	}
}

// Backup walks the transcript tree and uploads every log file, object keys
// mirroring <userID>/<date>.txt. A missing tree means nothing has been
// logged yet and is not an error.
func (r *Runner) Backup(ctx context.Context) error {
	start := r.now()
	var uploaded int

	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".txt") {
			return nil
		}

		key, err := filepath.Rel(r.dir, path)
		if err != nil {
			return err
		}

		if err := r.upload(ctx, filepath.ToSlash(key), path); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no transcripts to back up", "dir", r.dir)
			return nil
		}
		return err
	}

	logger.Info("backup complete", "files", uploaded, "took", r.now().Sub(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if _, err := r.mc.PutObject(ctx, r.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: "text/plain",
	}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}
