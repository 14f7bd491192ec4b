package index

import "fmt"

// DistributionKey is the blockstore key an uploaded archive is stored under.
// The layout mirrors the download URL so a stored path can be resolved both
// ways.
func DistributionKey(owner, pkg, version, filename string) string {
	return fmt.Sprintf("dists/%s/%s/%s/%s", owner, pkg, version, filename)
}
