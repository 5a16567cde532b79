// Package archive creates and restores point-in-time snapshots of the
// trading application's data directory. A snapshot is a tar stream,
// gzip-compressed, optionally sealed with XChaCha20-Poly1305 under a key
// derived from the operator's passphrase.
package archive

import (
	"archive/tar"
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// File format: magic, one mode byte, then either the gzip stream (plain) or
// salt + nonce + AEAD-sealed gzip stream (encrypted).
var magic = []byte("TPSNAP1\n")

const (
	modePlain     = 0x00
	modeEncrypted = 0x01

	saltSize = 16
)

// manifestName is the tar entry carrying the snapshot manifest. It is never
// extracted to disk.
const manifestName = ".tp-manifest.json"

// Manifest identifies a snapshot.
type Manifest struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Files     int       `json:"files"`
}

// Options control snapshot creation.
type Options struct {
	// Passphrase seals the archive; empty means an unencrypted snapshot.
	Passphrase string
	// Overwrite allows replacing an existing archive. Without it an
	// existing file is an ExistsError, never a silent deletion.
	Overwrite bool
}

// ExistsError reports a snapshot target that already exists.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("archive %q already exists", e.Path)
}

// IntegrityError reports an archive that cannot be decrypted or whose
// contents do not have the expected structure.
type IntegrityError struct {
	Path string
	Err  error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("archive %q failed integrity check: %v", e.Path, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Snapshot archives srcDir into destPath and returns the manifest of what
// was written.
func Snapshot(srcDir, destPath string, opts Options, log *zap.Logger) (*Manifest, error) {
	if _, err := os.Stat(destPath); err == nil && !opts.Overwrite {
		return nil, &ExistsError{Path: destPath}
	}

	manifest := &Manifest{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Source:    srcDir,
	}

	if err := countFiles(srcDir, manifest); err != nil {
		return nil, fmt.Errorf("cannot scan %q: %w", srcDir, err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	// manifest first, then the directory walk in lexical order
	if err := writeManifest(tw, manifest); err != nil {
		return nil, err
	}
	if err := packDir(tw, srcDir, log); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	data, err := seal(buf.Bytes(), opts.Passphrase)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(destPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("cannot write archive %q: %w", destPath, err)
	}
	log.Info("snapshot written",
		zap.String("archive", destPath),
		zap.String("id", manifest.ID.String()),
		zap.Int("files", manifest.Files),
		zap.Bool("encrypted", opts.Passphrase != ""))
	return manifest, nil
}

// Restore unpacks an archive into destDir and returns its manifest. A wrong
// passphrase, a truncated file or an unexpected layout is an IntegrityError.
func Restore(archivePath, destDir, passphrase string) (*Manifest, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read archive %q: %w", archivePath, err)
	}

	plain, err := open(data, passphrase)
	if err != nil {
		return nil, &IntegrityError{Path: archivePath, Err: err}
	}

	gz, err := gzip.NewReader(bytes.NewReader(plain))
	if err != nil {
		return nil, &IntegrityError{Path: archivePath, Err: err}
	}
	defer gz.Close()
	tr := tar.NewReader(gz)

	var manifest *Manifest
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IntegrityError{Path: archivePath, Err: err}
		}

		if hdr.Name == manifestName {
			var m Manifest
			if err := json.NewDecoder(tr).Decode(&m); err != nil {
				return nil, &IntegrityError{Path: archivePath, Err: fmt.Errorf("bad manifest: %w", err)}
			}
			manifest = &m
			continue
		}
		if manifest == nil {
			return nil, &IntegrityError{Path: archivePath, Err: fmt.Errorf("missing manifest")}
		}
		if err := unpackEntry(tr, hdr, destDir); err != nil {
			return nil, &IntegrityError{Path: archivePath, Err: err}
		}
	}
	if manifest == nil {
		return nil, &IntegrityError{Path: archivePath, Err: fmt.Errorf("missing manifest")}
	}
	return manifest, nil
}

func countFiles(srcDir string, m *Manifest) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			m.Files++
		}
		return nil
	})
}

func writeManifest(tw *tar.Writer, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    manifestName,
		Mode:    0o600,
		Size:    int64(len(data)),
		ModTime: m.CreatedAt,
	}); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

func packDir(tw *tar.Writer, srcDir string, log *zap.Logger) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return tw.WriteHeader(&tar.Header{
				Name:     rel + "/",
				Typeflag: tar.TypeDir,
				Mode:     int64(info.Mode().Perm()),
				ModTime:  info.ModTime(),
			})
		}
		if !info.Mode().IsRegular() {
			log.Warn("skipping irregular file", zap.String("path", path))
			return nil
		}

		if err := tw.WriteHeader(&tar.Header{
			Name:    rel,
			Mode:    int64(info.Mode().Perm()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

func unpackEntry(tr *tar.Reader, hdr *tar.Header, destDir string) error {
	if !safeEntryName(hdr.Name) {
		return fmt.Errorf("unsafe path %q", hdr.Name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, fs.FileMode(hdr.Mode).Perm())
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode).Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported entry type %q in %q", hdr.Typeflag, hdr.Name)
	}
}

// safeEntryName reports whether a tar entry may be extracted under the
// destination. Only the ".." path element escapes; a filename that merely
// contains dots ("notes..txt") is legitimate.
func safeEntryName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	for _, elem := range strings.Split(strings.TrimSuffix(name, "/"), "/") {
		if elem == ".." {
			return false
		}
	}
	return true
}

// seal wraps the compressed stream in the archive file format, encrypting
// it when a passphrase is set.
func seal(plain []byte, passphrase string) ([]byte, error) {
	var out bytes.Buffer
	out.Write(magic)
	if passphrase == "" {
		out.WriteByte(modePlain)
		out.Write(plain)
		return out.Bytes(), nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out.WriteByte(modeEncrypted)
	out.Write(salt)
	out.Write(nonce)
	out.Write(aead.Seal(nil, nonce, plain, magic))
	return out.Bytes(), nil
}

// open reverses seal.
func open(data []byte, passphrase string) ([]byte, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("not a snapshot archive")
	}
	mode := data[len(magic)]
	rest := data[len(magic)+1:]

	switch mode {
	case modePlain:
		return rest, nil
	case modeEncrypted:
		if passphrase == "" {
			return nil, fmt.Errorf("archive is encrypted and no passphrase was given")
		}
		if len(rest) < saltSize+chacha20poly1305.NonceSizeX {
			return nil, fmt.Errorf("truncated archive")
		}
		salt := rest[:saltSize]
		nonce := rest[saltSize : saltSize+chacha20poly1305.NonceSizeX]
		sealed := rest[saltSize+chacha20poly1305.NonceSizeX:]

		aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
		if err != nil {
			return nil, err
		}
		plain, err := aead.Open(nil, nonce, sealed, magic)
		if err != nil {
			return nil, fmt.Errorf("decryption failed: %w", err)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("unknown archive mode 0x%02x", mode)
	}
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}
