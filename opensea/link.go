package opensea

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrBadLink = errors.New("bad asset link")

// ParseLink splits an asset link like
// https://opensea.io/assets/0x495f947276749ce646f68ac8c248420045cb7b5e/1234
// into its contract address and token id (the last two path segments).
func ParseLink(link string) (contract, tokenId string, err error) {
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %s", ErrBadLink, link)
	}
	contract, tokenId = parts[len(parts)-2], parts[len(parts)-1]
	if !common.IsHexAddress(contract) || tokenId == "" {
		return "", "", fmt.Errorf("%w: %s", ErrBadLink, link)
	}
	return contract, tokenId, nil
}

// SameAddress compares two account addresses, ignoring hex case.
// Empty addresses never match.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
