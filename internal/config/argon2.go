package config

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Hash — разобранный ADMIN_PASSWORD_HASH.
type Argon2Hash struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Key         []byte
}

// ParseArgon2Hash разбирает строку вида
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>.
// Нулевые t и p отклоняются: argon2.IDKey на них паникует.
func ParseArgon2Hash(encoded string) (Argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Hash{}, fmt.Errorf("ожидается формат $argon2id$v=..$m=..,t=..,p=..$соль$хеш")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Hash{}, fmt.Errorf("неподдерживаемая версия argon2 %q", parts[2])
	}

	var h Argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.Memory, &h.Iterations, &h.Parallelism); err != nil {
		return Argon2Hash{}, fmt.Errorf("параметры argon2 %q: %w", parts[3], err)
	}
	if h.Memory == 0 || h.Iterations == 0 || h.Parallelism == 0 {
		return Argon2Hash{}, fmt.Errorf("параметры argon2 m, t, p должны быть > 0: %q", parts[3])
	}

	var err error
	if h.Salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.Salt) == 0 {
		return Argon2Hash{}, fmt.Errorf("некорректная соль argon2")
	}
	if h.Key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.Key) == 0 {
		return Argon2Hash{}, fmt.Errorf("некорректный хеш argon2")
	}
	return h, nil
}
