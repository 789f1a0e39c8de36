package repositories

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Defaults applied by werkzeug when the method string omits them
const (
	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptN          = 1 << 15
	werkzeugScryptR          = 8
	werkzeugScryptP          = 1
	werkzeugScryptKeyLen     = 64
)

var pbkdf2Hashes = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// VerifyPassword checks password against a stored hash.
//
// bcrypt hashes are what this application writes. Accounts created by the earlier Python deployment
// carry werkzeug "pbkdf2:..." or "scrypt:..." hashes in the "method$salt$hex" form and still verify.
func VerifyPassword(stored, password string) bool {
	if IsLegacyHash(stored) {
		return verifyWerkzeug(stored, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// IsLegacyHash reports whether stored is a werkzeug hash rather than a bcrypt one
func IsLegacyHash(stored string) bool {
	return strings.HasPrefix(stored, "pbkdf2:") || strings.HasPrefix(stored, "scrypt:")
}

func verifyWerkzeug(stored, password string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, expected := parts[0], parts[1], parts[2]

	derived, ok := werkzeugDerive(method, []byte(salt), []byte(password))
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(derived)), []byte(expected)) == 1
}

func werkzeugDerive(method string, salt, password []byte) ([]byte, bool) {
	name, args, _ := strings.Cut(method, ":")
	var params []string
	if args != "" {
		params = strings.Split(args, ":")
	}

	switch name {
	case "pbkdf2":
		hashName, iterations := "sha256", werkzeugPBKDF2Iterations
		if len(params) > 2 {
			return nil, false
		}
		if len(params) > 0 {
			hashName = params[0]
		}
		if len(params) == 2 {
			n, err := strconv.Atoi(params[1])
			if err != nil || n < 1 {
				return nil, false
			}
			iterations = n
		}
		h, ok := pbkdf2Hashes[hashName]
		if !ok {
			return nil, false
		}
		return pbkdf2.Key(password, salt, iterations, h().Size(), h), true

	case "scrypt":
		n, r, p := werkzeugScryptN, werkzeugScryptR, werkzeugScryptP
		if len(params) != 0 {
			if len(params) != 3 {
				return nil, false
			}
			var err error
			if n, err = strconv.Atoi(params[0]); err != nil {
				return nil, false
			}
			if r, err = strconv.Atoi(params[1]); err != nil {
				return nil, false
			}
			if p, err = strconv.Atoi(params[2]); err != nil {
				return nil, false
			}
		}
		key, err := scrypt.Key(password, salt, n, r, p, werkzeugScryptKeyLen)
		if err != nil {
			return nil, false
		}
		return key, true
	}
	return nil, false
}
