package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"umd-lhcb/tupling/pkg/cutflow"
)

// RulesDigest returns the hex SHA-256 of the rules, so runs made with the
// same selection can be grouped. Rules are hashed after normalization, so
// reformatting a condition across lines does not change the digest.
func RulesDigest(rules []cutflow.Rule) string {
	var sb strings.Builder
	for _, r := range rules {
		n := r.Normalize()
		sb.WriteString(n.Cond)
		sb.WriteByte(0)
		sb.WriteString(n.ResultKey())
		sb.WriteByte(0)
		sb.WriteString(n.Name)
		sb.WriteByte(0)
		sb.WriteString(n.Reference().String())
		sb.WriteByte(0)
		sb.WriteString(strconv.FormatBool(n.Explicit))
		sb.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
