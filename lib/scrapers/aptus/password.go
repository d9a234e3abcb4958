package aptus

import (
	"log/slog"
	"strconv"
	"strings"
)

// EncodePassword obfuscates the login password the way the portal's own login
// form does: the numeric salt is used as an XOR key over every character code,
// producing the PwEnc form field. the transform is self-inverse and carries no
// cryptographic strength. an invalid or empty salt degrades to returning the
// password unchanged, matching the portal's client-side script.
func EncodePassword(password, salt string) string {
	key, err := strconv.Atoi(strings.TrimSpace(salt))
	if err != nil {
		slog.Warn("invalid password salt, submitting password unobfuscated", "salt", salt)
		return password
	}

	out := make([]rune, 0, len(password))
	for _, c := range password {
		out = append(out, rune(int(c)^key))
	}
	return string(out)
}
