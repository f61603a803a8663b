package oracle

import (
	"crypto/sha256"
	"encoding/binary"

	blockstore "github.com/ipfs/go-ipfs-blockstore"
	dshelp "github.com/ipfs/go-ipfs-ds-help"
	"github.com/multiformats/go-multihash"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

// AttestationKey turns a (slot, root) pair into a blockstore prefixed multihash
// key. The same key is used by the in memory and the Postgres store so both
// address attestations identically.
func AttestationKey(slot uint64, root Root) (string, error) {
	buf := make([]byte, 8+len(root))
	binary.BigEndian.PutUint64(buf[:8], slot)
	copy(buf[8:], root[:])
	digest := sha256.Sum256(buf)

	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		loghelper.LogError(err).Error("Unable to create a multihash Key")
		return "", err
	}
	dbKey := dshelp.MultihashToDsKey(mh)
	return blockstore.BlockPrefix.String() + dbKey.String(), nil
}
