package codec

import "github.com/user/vuelink/config"

// ValidPartNumbering reports whether partNo/totalParts satisfy the
// invariant: 1 <= partNo <= totalParts <= 7.
func ValidPartNumbering(partNo, totalParts int) bool {
	return partNo >= 1 && partNo <= totalParts && totalParts <= config.MaxWireParts
}
