package launcher

import (
	"crypto/subtle"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// InstructorKeyFile enables instructor mode when present and non-empty.
// It must never be shipped to students.
const InstructorKeyFile = ".instructor_key"

// InstructorKey guards deadline editing. The file holds either a bcrypt hash
// written by Set or a plain key placed there by hand.
type InstructorKey struct {
	path string
}

func NewInstructorKey(suiteRoot string) *InstructorKey {
	return &InstructorKey{path: filepath.Join(suiteRoot, InstructorKeyFile)}
}

func (k *InstructorKey) Path() string { return k.path }

func (k *InstructorKey) read() string {
	data, err := ioutil.ReadFile(k.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Enabled reports whether instructor mode is on.
func (k *InstructorKey) Enabled() bool {
	return k.read() != ""
}

// Set stores a bcrypt hash of secret, enabling instructor mode.
func (k *InstructorKey) Set(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("instructor key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing instructor key")
	}
	if err := os.MkdirAll(filepath.Dir(k.path), 0o755); err != nil {
		return errors.Wrap(err, "creating suite root")
	}
	return errors.Wrap(ioutil.WriteFile(k.path, append(hash, '\n'), 0o600), "writing instructor key")
}

// Verify checks secret against the stored key.
func (k *InstructorKey) Verify(secret string) bool {
	stored := k.read()
	if stored == "" || secret == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) == 1
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
