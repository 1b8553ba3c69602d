// Package snapshot packages a data root into a single compressed tar stream
// and restores it. Shard files are archived byte for byte, so a restored
// root scans exactly like its source.
package snapshot

import (
	"archive/tar"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/compression"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/observability"
)

// Result summarizes an export or import.
type Result struct {
	Files    int
	Bytes    int64
	Duration time.Duration
}

// Archiver exports and imports data roots.
type Archiver struct {
	Compressor compression.Compressor
	Logger     *zap.Logger
}

// New returns an Archiver compressing with comp.
func New(comp compression.Compressor, log *zap.Logger) *Archiver {
	return &Archiver{Compressor: comp, Logger: logger.Or(log)}
}

// Export writes every directory and regular file under root to dst. Entry
// names are slash-separated and relative to root, in lexical order.
func (a *Archiver) Export(ctx context.Context, root string, dst io.Writer) (*Result, error) {
	_, span := observability.StartSpan(ctx, "snapshot.export")
	defer span.End()
	span.SetAttribute("algorithm", string(a.Compressor.Algorithm()))

	start := time.Now()
	info, err := os.Stat(root)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "stat data root")
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrorTypeIO, "data root %s is not a directory", root)
	}

	cw, err := a.Compressor.NewWriter(dst)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "open compressor")
	}
	tw := tar.NewWriter(cw)

	res := &Result{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			a.Logger.Debug("skipping non-regular entry", zap.String("path", p))
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		n, err := copyFile(tw, p)
		if err != nil {
			return err
		}
		res.Files++
		res.Bytes += n
		return nil
	})
	if err == nil {
		err = tw.Close()
	}
	if cerr := cw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "export snapshot")
	}

	res.Duration = time.Since(start)
	span.SetAttribute("files", res.Files)
	a.Logger.Info("snapshot exported",
		zap.String("root", root),
		zap.String("algorithm", string(a.Compressor.Algorithm())),
		zap.Int("files", res.Files),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Import restores an archive written by Export into root. Existing files
// are never overwritten; an entry that would replace one, or that escapes
// root, fails the import. A failed import removes the files and directories
// it created, so root is left as it was found and the import can be retried.
func (a *Archiver) Import(ctx context.Context, src io.Reader, root string) (*Result, error) {
	_, span := observability.StartSpan(ctx, "snapshot.import")
	defer span.End()

	start := time.Now()
	cr, err := a.Compressor.NewReader(src)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecoding, "open decompressor")
	}
	defer cr.Close()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "create data root")
	}

	r := &restorer{root: filepath.Clean(root)}
	if err := r.extract(tar.NewReader(cr)); err != nil {
		span.RecordError(err)
		if rerr := r.rollback(); rerr != nil {
			a.Logger.Warn("snapshot rollback incomplete", zap.String("root", root), zap.Error(rerr))
		}
		return nil, err
	}

	res := &Result{Files: len(r.files), Bytes: r.bytes, Duration: time.Since(start)}
	a.Logger.Info("snapshot imported",
		zap.String("root", root),
		zap.Int("files", res.Files),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// restorer extracts tar entries under root and remembers what it created.
type restorer struct {
	root  string
	files []string
	dirs  []string
	bytes int64
}

func (r *restorer) extract(tr *tar.Reader) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeDecoding, "read snapshot entry")
		}
		target, err := entryPath(r.root, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := r.mkdirAll(target); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "create directory")
			}
		case tar.TypeReg:
			if err := r.mkdirAll(filepath.Dir(target)); err != nil {
				return errors.Wrapf(err, errors.ErrorTypeIO, "restore %s", hdr.Name)
			}
			if err := r.restoreFile(target, tr); err != nil {
				return errors.Wrapf(err, errors.ErrorTypeIO, "restore %s", hdr.Name)
			}
		default:
			return errors.Newf(errors.ErrorTypeDecoding, "unsupported entry type %q for %s", hdr.Typeflag, hdr.Name)
		}
	}
}

// mkdirAll creates dir and any missing parents below root, recording each
// directory it creates.
func (r *restorer) mkdirAll(dir string) error {
	var missing []string
	for p := dir; p != r.root && p != filepath.Dir(p); p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		missing = append(missing, p)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		err := os.Mkdir(missing[i], 0o755)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		r.dirs = append(r.dirs, missing[i])
	}
	return nil
}

func (r *restorer) restoreFile(target string, src io.Reader) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
	if err != nil {
		return err
	}
	r.files = append(r.files, target)
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	r.bytes += n
	return err
}

// rollback removes created files, then created directories deepest first.
func (r *restorer) rollback() error {
	var errs []error
	for _, f := range r.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	for i := len(r.dirs) - 1; i >= 0; i-- {
		if err := os.Remove(r.dirs[i]); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func entryPath(root, name string) (string, error) {
	clean := path.Clean(strings.TrimSuffix(name, "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.Newf(errors.ErrorTypeDecoding, "invalid snapshot entry name %q", name)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

func copyFile(dst io.Writer, p string) (int64, error) {
	f, err := os.Open(p) //nolint:gosec // G304: walking the data root
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(dst, f)
}
