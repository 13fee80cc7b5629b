// Package files locates station observation exports and fingerprints them.
//
// Discovery finds spreadsheet and CSV exports under a base directory and
// resolves an input argument to a concrete file, preferring the most
// recently modified export when given a directory.
//
// Fingerprint hashes an input file so the run manifest can tie artifacts
// back to the exact bytes they were derived from.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/path/to/data")
//	input, err := discovery.ResolveInput("plrt_march.xlsx")
//	if err != nil {
//		return err
//	}
//	sum, err := files.Fingerprint(input.Path)
package files
