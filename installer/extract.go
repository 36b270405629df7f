package installer

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatZip
	formatTarGz
	formatTarZst
)

func (f archiveFormat) String() string {
	switch f {
	case formatZip:
		return "zip"
	case formatTarGz:
		return "tar.gz"
	case formatTarZst:
		return "tar.zst"
	default:
		return "unknown"
	}
}

var (
	magicZip      = []byte("PK\x03\x04")
	magicZipEmpty = []byte("PK\x05\x06")
	magicGzip     = []byte{0x1f, 0x8b}
	magicZstd     = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ArchiveExtractor unpacks zip, tar.gz and tar.zst archives. Entries that
// would land outside the destination are rejected.
type ArchiveExtractor struct {
	Log *Logger
}

// Extract implements Extractor. Progress is reported as entries processed
// over total entries.
func (x *ArchiveExtractor) Extract(ctx context.Context, archive, dest string, progress ProgressFunc) error {
	format, err := detectFormat(archive)
	if err != nil {
		return err
	}
	root, err := openDestRoot(dest)
	if err != nil {
		return err
	}
	x.Log.Info("Extracting %s archive %s into %s", format, filepath.Base(archive), root.dir)

	switch format {
	case formatZip:
		return x.extractZip(ctx, archive, root, progress)
	default:
		return x.extractTar(ctx, archive, format, root, progress)
	}
}

func detectFormat(archive string) (archiveFormat, error) {
	f, err := os.Open(archive)
	if err != nil {
		return formatUnknown, &ArchiveError{Op: "open", Path: archive, Err: err}
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return formatUnknown, &ArchiveError{Op: "read", Path: archive, Err: err}
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, magicZip), bytes.HasPrefix(head, magicZipEmpty):
		return formatZip, nil
	case bytes.HasPrefix(head, magicGzip):
		return formatTarGz, nil
	case bytes.HasPrefix(head, magicZstd):
		return formatTarZst, nil
	}
	return formatUnknown, &ArchiveError{Op: "open", Path: archive, Err: ErrUnsupportedFormat}
}

func (x *ArchiveExtractor) extractZip(ctx context.Context, archive string, root destRoot, progress ProgressFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return &ArchiveError{Op: "open", Path: archive, Err: err}
	}
	defer r.Close()

	total := int64(len(r.File))
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := x.extractZipEntry(archive, root, f); err != nil {
			return err
		}
		if progress != nil {
			progress(int64(i+1), total)
		}
	}
	return nil
}

func (x *ArchiveExtractor) extractZipEntry(archive string, root destRoot, f *zip.File) error {
	mode := f.Mode()
	if mode&os.ModeSymlink != 0 {
		rc, err := f.Open()
		if err != nil {
			return &ArchiveError{Op: "read", Path: archive, Entry: f.Name, Err: err}
		}
		link, err := io.ReadAll(io.LimitReader(rc, 4096))
		rc.Close()
		if err != nil {
			return &ArchiveError{Op: "read", Path: archive, Entry: f.Name, Err: err}
		}
		return writeSymlink(archive, root, f.Name, string(link))
	}

	target, err := root.entry(f.Name)
	if err != nil {
		return &ArchiveError{Op: "read", Path: archive, Entry: f.Name, Err: err}
	}
	if mode.IsDir() {
		return mkdir(archive, f.Name, target)
	}

	rc, err := f.Open()
	if err != nil {
		return &ArchiveError{Op: "read", Path: archive, Entry: f.Name, Err: err}
	}
	defer rc.Close()
	return writeFile(archive, f.Name, target, rc, mode.Perm())
}

func (x *ArchiveExtractor) extractTar(ctx context.Context, archive string, format archiveFormat, root destRoot, progress ProgressFunc) error {
	total, err := countTarEntries(archive, format)
	if err != nil {
		return err
	}

	tr, closeFn, err := openTar(archive, format)
	if err != nil {
		return err
	}
	defer closeFn()

	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return &ArchiveError{Op: "read", Path: archive, Entry: hdr.Name, Err: fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)}
		}
		if err != nil {
			return &ArchiveError{Op: "read", Path: archive, Err: err}
		}
		if err := x.extractTarEntry(archive, root, hdr, tr); err != nil {
			return err
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}
}

func (x *ArchiveExtractor) extractTarEntry(archive string, root destRoot, hdr *tar.Header, r io.Reader) error {
	switch hdr.Typeflag {
	case tar.TypeXGlobalHeader:
		return nil
	case tar.TypeSymlink:
		return writeSymlink(archive, root, hdr.Name, hdr.Linkname)
	case tar.TypeLink:
		_, target, err := root.link(hdr.Name)
		if err != nil {
			return &ArchiveError{Op: "read", Path: archive, Entry: hdr.Name, Err: err}
		}
		source, err := root.entry(hdr.Linkname)
		if err != nil {
			return &ArchiveError{Op: "read", Path: archive, Entry: hdr.Name, Err: err}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return &ArchiveError{Op: "write", Path: archive, Entry: hdr.Name, Err: err}
		}
		if err := os.Link(source, target); err != nil {
			return &ArchiveError{Op: "write", Path: archive, Entry: hdr.Name, Err: err}
		}
		return nil
	}

	target, err := root.entry(hdr.Name)
	if err != nil {
		return &ArchiveError{Op: "read", Path: archive, Entry: hdr.Name, Err: err}
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return mkdir(archive, hdr.Name, target)
	case tar.TypeReg:
		return writeFile(archive, hdr.Name, target, r, hdr.FileInfo().Mode().Perm())
	default:
		x.Log.Debug("Skipping %s (type %q)", hdr.Name, hdr.Typeflag)
		return nil
	}
}

func countTarEntries(archive string, format archiveFormat) (int64, error) {
	tr, closeFn, err := openTar(archive, format)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	var n int64
	for {
		_, err := tr.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return 0, &ArchiveError{Op: "read", Path: archive, Err: err}
		}
		n++
	}
}

func openTar(archive string, format archiveFormat) (*tar.Reader, func(), error) {
	f, err := os.Open(archive)
	if err != nil {
		return nil, nil, &ArchiveError{Op: "open", Path: archive, Err: err}
	}

	switch format {
	case formatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, &ArchiveError{Op: "open", Path: archive, Err: err}
		}
		return tar.NewReader(gz), func() { gz.Close(); f.Close() }, nil

	case formatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, &ArchiveError{Op: "open", Path: archive, Err: err}
		}
		return tar.NewReader(zr), func() { zr.Close(); f.Close() }, nil
	}

	f.Close()
	return nil, nil, &ArchiveError{Op: "open", Path: archive, Err: ErrUnsupportedFormat}
}

// safeJoin resolves an archive entry name below dest, rejecting absolute
// names and names that climb out with "..".
func safeJoin(dest, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnsafePath)
	}
	local := filepath.FromSlash(name)
	if strings.HasPrefix(name, "/") || filepath.IsAbs(local) || filepath.VolumeName(local) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, local)
	if !within(dest, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// maxLinkHops bounds how many nested symlinks are followed for one path.
const maxLinkHops = 40

// destRoot places archive entries below the real destination directory.
// Symlinks already on disk, including ones written by earlier entries, are
// followed while resolving, so a chain of links cannot carry a later entry
// outside the destination.
type destRoot struct {
	dir string
}

func openDestRoot(dest string) (destRoot, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return destRoot{}, &ArchiveError{Op: "write", Path: dest, Err: err}
	}
	dir, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return destRoot{}, &ArchiveError{Op: "open", Path: dest, Err: err}
	}
	return destRoot{dir: dir}, nil
}

// entry returns the real path an entry named name is written to.
func (r destRoot) entry(name string) (string, error) {
	if _, err := safeJoin(r.dir, name); err != nil {
		return "", err
	}
	return r.resolve(r.dir, filepath.Clean(filepath.FromSlash(name)), 0)
}

// link is entry for link entries: only the parent directory is resolved,
// since the link replaces whatever is at its own path.
func (r destRoot) link(name string) (dir, target string, err error) {
	if _, err := safeJoin(r.dir, name); err != nil {
		return "", "", err
	}
	local := filepath.Clean(filepath.FromSlash(name))
	dir, err = r.resolve(r.dir, filepath.Dir(local), 0)
	if err != nil {
		return "", "", err
	}
	return dir, filepath.Join(dir, filepath.Base(local)), nil
}

// resolve walks rel from base one component at a time, following existing
// symlinks, and fails unless the result is inside the destination.
func (r destRoot) resolve(base, rel string, hops int) (string, error) {
	cur := base
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}

		next := filepath.Join(cur, part)
		fi, err := os.Lstat(next)
		if err != nil || fi.Mode()&os.ModeSymlink == 0 {
			cur = next
			continue
		}

		if hops >= maxLinkHops {
			return "", fmt.Errorf("%w: too many links at %s", ErrUnsafePath, next)
		}
		link, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(link) {
			return "", fmt.Errorf("%w: %s points to %s", ErrUnsafePath, next, link)
		}
		if cur, err = r.resolve(cur, link, hops+1); err != nil {
			return "", err
		}
	}

	if !within(r.dir, cur) {
		return "", fmt.Errorf("%w: %s resolves outside the destination", ErrUnsafePath, rel)
	}
	return cur, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func mkdir(archive, entry, target string) error {
	if err := os.MkdirAll(target, 0755); err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}
	return nil
}

func writeFile(archive, entry, target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}
	if perm&0600 != 0600 {
		perm |= 0600
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		// A failed read means a corrupt archive; anything else is the disk.
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
		}
		return &ArchiveError{Op: "read", Path: archive, Entry: entry, Err: err}
	}
	if err := out.Close(); err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}
	return nil
}

func writeSymlink(archive string, root destRoot, entry, link string) error {
	dir, target, err := root.link(entry)
	if err != nil {
		return &ArchiveError{Op: "read", Path: archive, Entry: entry, Err: err}
	}
	if link == "" || filepath.IsAbs(filepath.FromSlash(link)) || strings.HasPrefix(link, "/") {
		return &ArchiveError{Op: "read", Path: archive, Entry: entry, Err: fmt.Errorf("%w: link to %s", ErrUnsafePath, link)}
	}
	// The target is resolved from the link's real directory, through any
	// links already on disk.
	if _, err := root.resolve(dir, filepath.FromSlash(link), 0); err != nil {
		return &ArchiveError{Op: "read", Path: archive, Entry: entry, Err: fmt.Errorf("link to %s: %w", link, err)}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}
	os.Remove(target)
	if err := os.Symlink(link, target); err != nil {
		return &ArchiveError{Op: "write", Path: archive, Entry: entry, Err: err}
	}
	return nil
}
