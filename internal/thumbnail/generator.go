// Package thumbnail turns finalized image uploads into 200x200 thumbnails and
// records signed URLs for both objects on the owner's profile.
package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/muhammadolammi/thumbworker/internal/database"
	"github.com/muhammadolammi/thumbworker/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SignedURLExpiry is the lifetime of the recorded URLs. Seven days is the
// longest expiry SigV4 presigning accepts, so a stored record goes stale a
// week after the upload that wrote it. Readers get the URLs exactly as stored;
// a fresh upload of the original is what renews them.
const SignedURLExpiry = 7 * 24 * time.Hour

const (
	ReasonNotImage         = "not an image"
	ReasonAlreadyThumbnail = "already a thumbnail"
)

// UploadEvent describes one finalized object.
type UploadEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// ProfilePhoto is the value written to the profile record.
type ProfilePhoto struct {
	Path      string `json:"path"`
	Thumbnail string `json:"thumbnail"`
}

// Result reports what Handle did. A skipped result has no side effects.
type Result struct {
	Skipped   bool
	Reason    string
	UserID    string
	ThumbPath string
	Photo     ProfilePhoto
}

type ProfileStore interface {
	UpsertProfileRecord(ctx context.Context, arg database.UpsertProfileRecordParams) error
}

type Generator struct {
	store    storage.Store
	profiles ProfileStore
	observer Observer
}

type Option func(*Generator)

func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

func NewGenerator(store storage.Store, profiles ProfileStore, opts ...Option) *Generator {
	g := &Generator{
		store:    store,
		profiles: profiles,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handle processes one upload event. It returns only after the thumbnail is
// stored, both URLs are signed and the profile record is written, or after the
// first failing step. An eligible image outside profile_photos/<userID>/ still
// gets its thumbnail, then fails with ErrNoUserID before any record is written.
func (g *Generator) Handle(ctx context.Context, ev UploadEvent) (res Result, err error) {
	start := time.Now()
	defer func() {
		g.observer.ObserveInvocation(outcomeOf(res, err), time.Since(start))
	}()

	logger := zerolog.Ctx(ctx).With().
		Str("bucket", ev.Bucket).
		Str("object", ev.Name).
		Logger()

	if ev.ContentType == "" {
		info, err := g.store.Stat(ctx, ev.Bucket, ev.Name)
		if err != nil {
			return Result{}, fmt.Errorf("stat original: %w", err)
		}
		ev.ContentType = info.ContentType
	}

	if !strings.HasPrefix(ev.ContentType, "image/") {
		logger.Info().Str("content_type", ev.ContentType).Msg("This is not an image.")
		return Result{Skipped: true, Reason: ReasonNotImage}, nil
	}
	if IsThumbnail(ev.Name) {
		logger.Info().Msg("Already a thumbnail.")
		return Result{Skipped: true, Reason: ReasonAlreadyThumbnail}, nil
	}

	format, err := FormatFor(ev.ContentType, ev.Name)
	if err != nil {
		return Result{}, err
	}

	thumbPath := ThumbPath(ev.Name)
	if err := g.writeThumbnail(ctx, ev, thumbPath, format); err != nil {
		return Result{}, err
	}
	logger.Info().Str("thumbnail", thumbPath).Msg("Thumbnail uploaded.")

	// The thumbnail stays in place; only the profile record needs an owner.
	userID, err := UserID(ev.Name)
	if err != nil {
		return Result{ThumbPath: thumbPath}, err
	}

	photo, err := g.signURLs(ctx, ev.Bucket, ev.Name, thumbPath)
	if err != nil {
		return Result{}, err
	}
	logger.Debug().Msg("Got signed URLs.")

	value, err := json.Marshal(photo)
	if err != nil {
		return Result{}, fmt.Errorf("marshal profile photo: %w", err)
	}
	err = g.profiles.UpsertProfileRecord(ctx, database.UpsertProfileRecordParams{
		Key:   ProfileKey(userID),
		Value: value,
	})
	if err != nil {
		return Result{}, fmt.Errorf("save profile photo for user %s: %w", userID, err)
	}
	logger.Info().Str("user_id", userID).Msg("Thumbnail URLs saved to database.")

	return Result{
		UserID:    userID,
		ThumbPath: thumbPath,
		Photo:     photo,
	}, nil
}

// writeThumbnail pipes the original through Resize into the upload. Both
// halves finish before it returns.
func (g *Generator) writeThumbnail(ctx context.Context, ev UploadEvent, thumbPath string, format imaging.Format) error {
	src, err := g.store.Open(ctx, ev.Bucket, ev.Name)
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	resized := make(chan error, 1)
	go func() {
		err := Resize(pw, src, format)
		pw.CloseWithError(err)
		resized <- err
	}()

	putErr := g.store.Put(ctx, ev.Bucket, thumbPath, pr, ev.ContentType)
	// Unblocks the encoder if Put stopped reading early.
	pr.CloseWithError(putErr)
	resizeErr := <-resized

	if resizeErr != nil && !errors.Is(resizeErr, putErr) {
		return fmt.Errorf("resize %s: %w", ev.Name, resizeErr)
	}
	if putErr != nil {
		return fmt.Errorf("upload thumbnail: %w", putErr)
	}
	return nil
}

func (g *Generator) signURLs(ctx context.Context, bucket, original, thumb string) (ProfilePhoto, error) {
	var photo ProfilePhoto
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		u, err := g.store.SignedURL(gctx, bucket, thumb, SignedURLExpiry)
		if err != nil {
			return fmt.Errorf("sign thumbnail url: %w", err)
		}
		photo.Thumbnail = u
		return nil
	})
	grp.Go(func() error {
		u, err := g.store.SignedURL(gctx, bucket, original, SignedURLExpiry)
		if err != nil {
			return fmt.Errorf("sign original url: %w", err)
		}
		photo.Path = u
		return nil
	})
	if err := grp.Wait(); err != nil {
		return ProfilePhoto{}, err
	}
	return photo, nil
}

func outcomeOf(res Result, err error) string {
	switch {
	case err != nil:
		return OutcomeFailed
	case res.Skipped:
		return OutcomeSkipped
	default:
		return OutcomeSucceeded
	}
}
