package submission

import (
	"archive/zip"
	"bufio"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

const (
	ManifestFile = "submit_manifest.txt"
	manifestKey  = "submit_to_email"

	zipPrefix     = "abgabe_"
	zipExt        = ".zip"
	zipTimeLayout = "20060102_1504"
)

// SubjectOf returns the mail subject used for a lab submission.
func SubjectOf(folder string) string {
	return "[kt-assignment] ID=" + folder
}

// ZipName returns abgabe_<folder>_<YYYYmmdd_HHMM>.zip with spaces replaced by underscores.
func ZipName(folder string, now time.Time) string {
	return zipPrefix + strings.ReplaceAll(folder, " ", "_") + "_" + now.Format(zipTimeLayout) + zipExt
}

func isSubmissionZip(name string) bool {
	return strings.HasPrefix(name, zipPrefix) && strings.HasSuffix(name, zipExt)
}

// CreateZip archives submissions/ (recursively) into a new zip inside the same
// folder and returns its path. Earlier submission archives are left out.
func (s *Store) CreateZip(folder string, now time.Time) (string, error) {
	dir, err := s.EnsureDir(folder)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, ZipName(folder, now))
	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, "creating zip file")
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || isSubmissionZip(info.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return addToZip(zw, path, filepath.ToSlash(rel), info)
	})
	if walkErr == nil {
		walkErr = zw.Close()
	}
	if cerr := out.Close(); walkErr == nil {
		walkErr = cerr
	}
	if walkErr != nil {
		os.Remove(dest)
		return "", errors.Wrap(walkErr, "writing zip file")
	}
	return dest, nil
}

func addToZip(zw *zip.Writer, path, name string, info os.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// ReadSubmitEmail returns submit_to_email from <suiteRoot>/submit_manifest.txt,
// or "" when the manifest or the key is missing.
func ReadSubmitEmail(suiteRoot string) string {
	f, err := os.Open(filepath.Join(suiteRoot, ManifestFile))
	if err != nil {
		return ""
	}
	defer f.Close()
	return parseManifest(f)
}

func parseManifest(r io.Reader) string {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		raw := strings.TrimSpace(strings.SplitN(sc.Text(), "#", 2)[0])
		kv := strings.SplitN(raw, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if core.CleanString(kv[0], true) == manifestKey {
			return strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		}
	}
	return ""
}

// MailtoURL builds a mailto link with the submission subject; "" without an address.
func MailtoURL(email, folder string) string {
	if email == "" {
		return ""
	}
	subject := strings.ReplaceAll(url.QueryEscape(SubjectOf(folder)), "+", "%20")
	return "mailto:" + email + "?subject=" + subject
}
